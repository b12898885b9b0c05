package resume

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Degree is an academic degree entry.
type Degree struct {
	Degree         string   `yaml:"degree"`
	Institution    string   `yaml:"institution"`
	Location       string   `yaml:"location,omitempty"`
	GraduationDate Date     `yaml:"graduation_date,omitempty"`
	GPA            *float64 `yaml:"gpa,omitempty"`
	Honors         []string `yaml:"honors,omitempty"`
	Coursework     []string `yaml:"relevant_coursework,omitempty"`
}

func (d *Degree) Validate() error {
	if d.Degree == "" {
		return errors.New("degree: name is required")
	}
	if d.Institution == "" {
		return fmt.Errorf("degree %s: institution is required", d.Degree)
	}
	if d.GPA != nil && (*d.GPA < 0 || *d.GPA > 4) {
		return fmt.Errorf("degree %s: gpa must be within [0, 4]", d.Degree)
	}
	return nil
}

// Certification is a professional certification entry.
type Certification struct {
	Name         string `yaml:"name"`
	Issuer       string `yaml:"issuer"`
	DateObtained Date   `yaml:"date_obtained,omitempty"`
	Expiration   Date   `yaml:"expiration_date,omitempty"`
	CredentialID string `yaml:"credential_id,omitempty"`
	URL          string `yaml:"url,omitempty"`
}

func (c *Certification) Validate() error {
	if c.Name == "" {
		return errors.New("certification: name is required")
	}
	if c.Issuer == "" {
		return fmt.Errorf("certification %s: issuer is required", c.Name)
	}
	return nil
}

// IsExpired reports whether the certification's expiration date has
// passed. Certifications without one never expire.
func (c *Certification) IsExpired() bool {
	if c.Expiration.IsZero() {
		return false
	}
	return c.Expiration.Before(time.Now())
}

// Education is the degrees and certifications component, stored as
// education.yaml.
type Education struct {
	Degrees        []Degree        `yaml:"degrees,omitempty"`
	Certifications []Certification `yaml:"certifications,omitempty"`
}

func (e *Education) Validate() error {
	for i := range e.Degrees {
		if err := e.Degrees[i].Validate(); err != nil {
			return err
		}
	}
	for i := range e.Certifications {
		if err := e.Certifications[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HighestDegree returns the most recently earned degree, nil when there
// are none.
func (e *Education) HighestDegree() *Degree {
	if len(e.Degrees) == 0 {
		return nil
	}

	sorted := make([]Degree, len(e.Degrees))
	copy(sorted, e.Degrees)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GraduationDate.After(sorted[j].GraduationDate.Time)
	})
	return &sorted[0]
}

// ActiveCertifications returns the certifications that have not expired.
func (e *Education) ActiveCertifications() []Certification {
	var active []Certification
	for _, cert := range e.Certifications {
		if !cert.IsExpired() {
			active = append(active, cert)
		}
	}
	return active
}

// LoadEducation reads and validates an education.yaml file.
func LoadEducation(path string) (*Education, error) {
	var education Education
	if err := loadYAMLFile(path, &education, "education"); err != nil {
		return nil, err
	}
	return &education, nil
}
