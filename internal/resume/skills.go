package resume

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Skill is a detailed skill entry with proficiency metadata.
type Skill struct {
	Name        string   `yaml:"name"`
	Proficiency string   `yaml:"proficiency,omitempty"`
	Years       *float64 `yaml:"years_experience,omitempty"`
	LastUsed    int      `yaml:"last_used,omitempty"`
	// Aliases are alternative names used during keyword matching, such as
	// "JS" for "JavaScript".
	Aliases []string `yaml:"aliases,omitempty"`
}

var proficiencyLevels = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
	"expert":       true,
}

func (s *Skill) Validate() error {
	if s.Name == "" {
		return errors.New("skill: name is required")
	}
	if s.Proficiency != "" && !proficiencyLevels[s.Proficiency] {
		return fmt.Errorf("skill %s: unknown proficiency %q", s.Name, s.Proficiency)
	}
	if s.Years != nil && *s.Years < 0 {
		return fmt.Errorf("skill %s: years_experience must not be negative", s.Name)
	}
	return nil
}

// SkillEntry is one item in a skill category. It accepts either form
// people write in YAML: a bare string ("Python") or a detailed mapping
// ({name: Python, proficiency: expert}).
type SkillEntry struct {
	// Name is always set. Detail is nil for bare-string entries.
	Name   string
	Detail *Skill
}

func (e *SkillEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		e.Name = strings.TrimSpace(name)
		e.Detail = nil
		return nil
	case yaml.MappingNode:
		var skill Skill
		if err := node.Decode(&skill); err != nil {
			return err
		}
		e.Name = skill.Name
		e.Detail = &skill
		return nil
	default:
		return fmt.Errorf("skill entry must be a string or a mapping, got %s node", node.Tag)
	}
}

func (e SkillEntry) MarshalYAML() (interface{}, error) {
	if e.Detail != nil {
		return e.Detail, nil
	}
	return e.Name, nil
}

func (e *SkillEntry) Validate() error {
	if e.Detail != nil {
		return e.Detail.Validate()
	}
	if e.Name == "" {
		return errors.New("skill: name is required")
	}
	return nil
}

// matches reports whether the query matches the skill name or any alias,
// case-insensitively on substrings.
func (e *SkillEntry) matches(query string) bool {
	if strings.Contains(strings.ToLower(e.Name), query) {
		return true
	}
	if e.Detail == nil {
		return false
	}
	for _, alias := range e.Detail.Aliases {
		if strings.Contains(strings.ToLower(alias), query) {
			return true
		}
	}
	return false
}

// Skills is the categorized skills inventory, stored as skills.yaml.
type Skills struct {
	Languages  []SkillEntry `yaml:"languages,omitempty"`
	Frameworks []SkillEntry `yaml:"frameworks,omitempty"`
	Tools      []SkillEntry `yaml:"tools,omitempty"`
	Databases  []SkillEntry `yaml:"databases,omitempty"`
	Cloud      []SkillEntry `yaml:"cloud,omitempty"`

	SoftSkills []string `yaml:"soft_skills,omitempty"`

	Domains       []string `yaml:"domains,omitempty"`
	Methodologies []string `yaml:"methodologies,omitempty"`
}

func (s *Skills) technicalCategories() [][]SkillEntry {
	return [][]SkillEntry{s.Languages, s.Frameworks, s.Tools, s.Databases, s.Cloud}
}

func (s *Skills) Validate() error {
	for _, category := range s.technicalCategories() {
		for i := range category {
			if err := category[i].Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// TechnicalSkills returns a flat list of all technical skill names across
// categories.
func (s *Skills) TechnicalSkills() []string {
	var names []string
	for _, category := range s.technicalCategories() {
		for _, entry := range category {
			names = append(names, entry.Name)
		}
	}
	return names
}

// Search finds technical skills matching a query, including aliases.
func (s *Skills) Search(query string) []SkillEntry {
	query = strings.ToLower(query)
	var matches []SkillEntry
	for _, category := range s.technicalCategories() {
		for _, entry := range category {
			if entry.matches(query) {
				matches = append(matches, entry)
			}
		}
	}
	return matches
}

// IsEmpty reports whether no skills are recorded at all.
func (s *Skills) IsEmpty() bool {
	for _, category := range s.technicalCategories() {
		if len(category) > 0 {
			return false
		}
	}
	return len(s.SoftSkills) == 0 && len(s.Domains) == 0 && len(s.Methodologies) == 0
}

// LoadSkills reads and validates a skills.yaml file.
func LoadSkills(path string) (*Skills, error) {
	var skills Skills
	if err := loadYAMLFile(path, &skills, "skills"); err != nil {
		return nil, err
	}
	return &skills, nil
}
