package gemini

import "github.com/PiazzaSanPietro/agvn/internal/story"

// schema is the OpenAPI subset accepted as a Gemini responseSchema.
type schema struct {
	Type             string             `json:"type"`
	Enum             []string           `json:"enum,omitempty"`
	Properties       map[string]*schema `json:"properties,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
	Items            *schema            `json:"items,omitempty"`
}

// chapterSchema describes story.StructuredChapter.
func chapterSchema() *schema {
	emotions := make([]string, len(story.Emotions))
	for i, e := range story.Emotions {
		emotions[i] = string(e)
	}
	backgrounds := make([]string, len(story.SceneBackgrounds))
	for i, b := range story.SceneBackgrounds {
		backgrounds[i] = string(b)
	}

	line := &schema{
		Type: "OBJECT",
		Properties: map[string]*schema{
			"role":    {Type: "STRING"},
			"emotion": {Type: "STRING", Enum: emotions},
			"script":  {Type: "STRING"},
		},
		Required:         []string{"role", "emotion", "script"},
		PropertyOrdering: []string{"role", "emotion", "script"},
	}

	return &schema{
		Type: "OBJECT",
		Properties: map[string]*schema{
			"scene_background": {Type: "STRING", Enum: backgrounds},
			"scripts":          {Type: "ARRAY", Items: line},
		},
		Required:         []string{"scene_background", "scripts"},
		PropertyOrdering: []string{"scene_background", "scripts"},
	}
}
