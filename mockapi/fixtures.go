package mockapi

import (
	"fmt"
	"os"

	"ai-character-chat/widget/internal/models"

	"gopkg.in/yaml.v3"
)

// characterFixture is the YAML shape for catalog entries.
type characterFixture struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	AvatarURL       string   `yaml:"avatar_url"`
	StatusText      string   `yaml:"status_text"`
	PersonalityTags []string `yaml:"personality_tags"`
	FilterTags      []string `yaml:"filter_tags"`
	Age             int      `yaml:"age"`
}

// defaultFixtures is the built-in catalog used when no fixtures file is
// configured.
const defaultFixtures = `
- id: char_luna
  name: Luna
  status_text: Stargazing and wondering about everything
  personality_tags: [curious, dreamy, warm]
  filter_tags: [fantasy, friendly]
  age: 24
- id: char_rex
  name: Rex
  status_text: Grumpy detective, coffee first
  personality_tags: [sarcastic, sharp, loyal]
  filter_tags: [noir, mystery]
  age: 41
- id: char_pip
  name: Pip
  status_text: Your overly enthusiastic sidekick
  personality_tags: [energetic, silly, supportive]
  filter_tags: [comedy, friendly]
  age: 19
- id: char_vera
  name: Vera
  status_text: Ancient librarian who has read it all
  personality_tags: [wise, patient, dry]
  filter_tags: [fantasy, mystery]
  age: 300
`

// LoadCharacters reads catalog fixtures from path, falling back to the
// built-in set when path is empty.
func LoadCharacters(path string) ([]models.Character, error) {
	raw := []byte(defaultFixtures)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading fixtures: %w", err)
		}
		raw = data
	}

	var fixtures []characterFixture
	if err := yaml.Unmarshal(raw, &fixtures); err != nil {
		return nil, fmt.Errorf("error parsing fixtures: %w", err)
	}

	out := make([]models.Character, 0, len(fixtures))
	for _, f := range fixtures {
		out = append(out, models.Character{
			ID:              f.ID,
			Name:            f.Name,
			AvatarURL:       f.AvatarURL,
			StatusText:      f.StatusText,
			PersonalityTags: f.PersonalityTags,
			FilterTags:      f.FilterTags,
			Age:             f.Age,
		})
	}
	return out, nil
}
