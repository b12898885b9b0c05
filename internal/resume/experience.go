package resume

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ExperienceEntry is a single position in the work history.
type ExperienceEntry struct {
	Title   string `yaml:"title"`
	Company string `yaml:"company"`

	StartDate Date `yaml:"start_date"`
	// EndDate is zero for an ongoing position; "present" parses to zero.
	EndDate   Date `yaml:"end_date,omitempty"`
	IsCurrent bool `yaml:"is_current,omitempty"`

	Location string `yaml:"location,omitempty"`
	Remote   bool   `yaml:"remote,omitempty"`

	Bullets []string `yaml:"bullets,omitempty"`

	Keywords []string `yaml:"keywords,omitempty"`
	// RelevanceScore in [0,1] is set during tailoring, not authored by hand.
	RelevanceScore *float64 `yaml:"relevance_score,omitempty"`
}

func (e *ExperienceEntry) Validate() error {
	if e.Title == "" {
		return errors.New("experience entry: title is required")
	}
	if e.Company == "" {
		return errors.New("experience entry: company is required")
	}
	if e.StartDate.IsZero() {
		return fmt.Errorf("experience entry %s at %s: start_date is required", e.Title, e.Company)
	}

	if e.EndDate.IsZero() {
		e.IsCurrent = true
	} else if e.EndDate.Before(e.StartDate.Time) {
		return fmt.Errorf("experience entry %s at %s: end_date is before start_date", e.Title, e.Company)
	}

	if e.RelevanceScore != nil && (*e.RelevanceScore < 0 || *e.RelevanceScore > 1) {
		return fmt.Errorf("experience entry %s at %s: relevance_score must be within [0, 1]", e.Title, e.Company)
	}

	return nil
}

// DurationMonths reports the position length in whole months. Ongoing
// positions are measured up to today.
func (e *ExperienceEntry) DurationMonths() int {
	end := e.EndDate
	if end.IsZero() {
		end = Date{time.Now()}
	}
	return e.StartDate.monthsUntil(end)
}

// Experience is the work history component, stored as experience.yaml.
// Entries are kept most recent first.
type Experience struct {
	Entries []ExperienceEntry `yaml:"entries,omitempty"`
}

func (e *Experience) Validate() error {
	for i := range e.Entries {
		if err := e.Entries[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CurrentPosition returns the ongoing position, nil when there is none.
func (e *Experience) CurrentPosition() *ExperienceEntry {
	for i := range e.Entries {
		if e.Entries[i].IsCurrent {
			return &e.Entries[i]
		}
	}
	return nil
}

// ByCompany returns all positions whose company name contains the query,
// case-insensitively.
func (e *Experience) ByCompany(company string) []ExperienceEntry {
	query := strings.ToLower(company)
	var matches []ExperienceEntry
	for _, entry := range e.Entries {
		if strings.Contains(strings.ToLower(entry.Company), query) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// TotalYears sums the duration of all positions, rounded to one decimal.
// Overlapping positions are counted twice.
func (e *Experience) TotalYears() float64 {
	months := 0
	for i := range e.Entries {
		months += e.Entries[i].DurationMonths()
	}
	return math.Round(float64(months)/12*10) / 10
}

// LoadExperience reads and validates an experience.yaml file.
func LoadExperience(path string) (*Experience, error) {
	var experience Experience
	if err := loadYAMLFile(path, &experience, "experience"); err != nil {
		return nil, err
	}
	return &experience, nil
}
