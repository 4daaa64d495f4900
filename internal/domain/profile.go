package domain

type FontType string

const (
	FontSans     FontType = "sans"
	FontDyslexic FontType = "dyslexic"
)

// Toggle flips between the two supported fonts. Unknown values become dyslexic,
// matching a toggle from the sans default.
func (f FontType) Toggle() FontType {
	if f == FontDyslexic {
		return FontSans
	}
	return FontDyslexic
}

type Preferences struct {
	FontType        FontType `json:"fontType"`
	StepGranularity string   `json:"stepGranularity"`
	VisualCues      bool     `json:"visualCues"`
}

// Profile is the user's locally persisted preference set.
type Profile struct {
	Name        string      `json:"name"`
	Triggers    string      `json:"triggers"`
	Preferences Preferences `json:"preferences"`
}

func DefaultProfile() Profile {
	return Profile{
		Preferences: Preferences{
			FontType:        FontSans,
			StepGranularity: "detailed",
			VisualCues:      true,
		},
	}
}

// SafeContext is the identity-free subset of a profile sent upstream.
type SafeContext struct {
	Needs   string `json:"needs,omitempty"`
	Avoid   string `json:"avoid,omitempty"`
	Visuals bool   `json:"visuals"`
}

// AsPreferences renders the context as the userPreferences bag of a request.
func (s SafeContext) AsPreferences() map[string]any {
	out := map[string]any{"visuals": s.Visuals}
	if s.Needs != "" {
		out["needs"] = s.Needs
	}
	if s.Avoid != "" {
		out["avoid"] = s.Avoid
	}
	return out
}
