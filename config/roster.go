package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRole is used for audience members without a configured role and for
// names that do not appear in the roster at all.
const DefaultRole = "team member"

// Member is one audience roster entry.
type Member struct {
	Name             string `yaml:"name"`
	Role             string `yaml:"role"`
	SlideInteraction int    `yaml:"slide_interaction"`
	Question         string `yaml:"question"`
	QuestionAudio    string `yaml:"question_audio"`
}

// Roster is the loaded audience configuration, indexed case-insensitively by
// name.
type Roster struct {
	Audience []Member `yaml:"audience"`

	byName map[string]*Member
}

// LoadRoster reads the audience roster from a YAML file.
func LoadRoster(filename string) (*Roster, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster builds a roster from raw YAML. An empty roster is valid; the
// engine falls back to DefaultRole for everyone.
func ParseRoster(data []byte) (*Roster, error) {
	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	roster.byName = make(map[string]*Member, len(roster.Audience))
	for i := range roster.Audience {
		m := &roster.Audience[i]
		if m.Name == "" {
			return nil, fmt.Errorf("audience member %d has no name", i)
		}
		roster.byName[strings.ToLower(m.Name)] = m
	}
	return &roster, nil
}

// Lookup finds a member by name, case-insensitively.
func (r *Roster) Lookup(name string) (*Member, bool) {
	m, ok := r.byName[strings.ToLower(name)]
	return m, ok
}

// Role returns the member's role, or DefaultRole when the member is unknown
// or has no role configured.
func (r *Roster) Role(name string) string {
	if m, ok := r.Lookup(name); ok && m.Role != "" {
		return m.Role
	}
	return DefaultRole
}

// Question returns the member's configured interaction question, empty when
// the member is unknown or has none.
func (r *Roster) Question(name string) string {
	if m, ok := r.Lookup(name); ok {
		return m.Question
	}
	return ""
}

// Size returns the number of roster entries.
func (r *Roster) Size() int { return len(r.Audience) }
