package story

import "fmt"

// Emotion is the expression tag attached to a script line.
type Emotion string

const (
	EmotionNeutral   Emotion = "neutral"
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionSurprised Emotion = "surprised"
	EmotionShy       Emotion = "shy"
)

// Emotions lists every valid emotion in declaration order.
var Emotions = []Emotion{
	EmotionNeutral,
	EmotionHappy,
	EmotionSad,
	EmotionAngry,
	EmotionSurprised,
	EmotionShy,
}

// ParseEmotion returns the Emotion for its canonical string form.
func ParseEmotion(s string) (Emotion, error) {
	e := Emotion(s)
	if !e.Valid() {
		return "", fmt.Errorf("unknown emotion %q", s)
	}
	return e, nil
}

// Valid reports whether e is one of the declared emotions.
func (e Emotion) Valid() bool {
	switch e {
	case EmotionNeutral, EmotionHappy, EmotionSad, EmotionAngry, EmotionSurprised, EmotionShy:
		return true
	}
	return false
}

func (e Emotion) String() string {
	return string(e)
}

// MarshalText implements encoding.TextMarshaler.
func (e Emotion) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("unknown emotion %q", string(e))
	}
	return []byte(e), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Emotion) UnmarshalText(text []byte) error {
	parsed, err := ParseEmotion(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
