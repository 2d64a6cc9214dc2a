package models

// Character is an immutable snapshot of a catalog entry as returned by the
// remote service. The widget never owns or mutates character data.
type Character struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	AvatarURL       string   `json:"avatarUrl,omitempty"`
	StatusText      string   `json:"statusText"`
	PersonalityTags []string `json:"personalityTags"`
	FilterTags      []string `json:"filterTags"`
	Age             int      `json:"age,omitempty"`
}

// HasFilterTag reports whether the character carries the given filter tag.
func (c Character) HasFilterTag(tag string) bool {
	for _, t := range c.FilterTags {
		if t == tag {
			return true
		}
	}
	return false
}
