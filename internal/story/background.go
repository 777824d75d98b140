package story

import "fmt"

// Background is the location tag a chapter's scene is drawn against.
type Background string

const (
	BackgroundClassroomDay     Background = "Classroom_Day"
	BackgroundClassroomSunset  Background = "Classroom_Sunset"
	BackgroundSchoolHallwayDay Background = "School_Hallway_Day"
	BackgroundSchoolRooftop    Background = "School_Rooftop"
	BackgroundProtagonistRoom  Background = "Protagonist_Room"
	BackgroundCafeInterior     Background = "Cafe_Interior"
	BackgroundPark             Background = "Park"
	BackgroundSchoolyard       Background = "Schoolyard"

	// BackgroundUnknown marks chapters imported from flat text, where no
	// scene information exists. Generators never produce it.
	BackgroundUnknown Background = "unknown"
)

// SceneBackgrounds lists the backgrounds a generator may choose from.
var SceneBackgrounds = []Background{
	BackgroundClassroomDay,
	BackgroundClassroomSunset,
	BackgroundSchoolHallwayDay,
	BackgroundSchoolRooftop,
	BackgroundProtagonistRoom,
	BackgroundCafeInterior,
	BackgroundPark,
	BackgroundSchoolyard,
}

// ParseBackground returns the Background for its canonical string form,
// including BackgroundUnknown.
func ParseBackground(s string) (Background, error) {
	b := Background(s)
	if !b.Valid() {
		return "", fmt.Errorf("unknown scene background %q", s)
	}
	return b, nil
}

// Valid reports whether b may be stored.
func (b Background) Valid() bool {
	return b == BackgroundUnknown || b.IsScene()
}

// IsScene reports whether b is one of the generator-facing scene tags.
func (b Background) IsScene() bool {
	switch b {
	case BackgroundClassroomDay, BackgroundClassroomSunset, BackgroundSchoolHallwayDay,
		BackgroundSchoolRooftop, BackgroundProtagonistRoom, BackgroundCafeInterior,
		BackgroundPark, BackgroundSchoolyard:
		return true
	}
	return false
}

func (b Background) String() string {
	return string(b)
}

// MarshalText implements encoding.TextMarshaler.
func (b Background) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("unknown scene background %q", string(b))
	}
	return []byte(b), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Background) UnmarshalText(text []byte) error {
	parsed, err := ParseBackground(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
