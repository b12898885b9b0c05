package resume

import (
	"errors"
	"fmt"
)

// Address is a physical address, used for cover letters.
type Address struct {
	Street  string `yaml:"street,omitempty"`
	City    string `yaml:"city"`
	State   string `yaml:"state"`
	Zip     string `yaml:"zip,omitempty"`
	Country string `yaml:"country,omitempty"`
}

func (a *Address) Validate() error {
	if a.City == "" {
		return errors.New("address: city is required")
	}
	if a.State == "" {
		return errors.New("address: state is required")
	}
	if a.Country == "" {
		a.Country = "USA"
	}
	return nil
}

// Profile is the personal information component, stored as profile.yaml.
// Validate normalizes the LinkedIn and GitHub references to full URLs.
type Profile struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`

	Phone    string `yaml:"phone,omitempty"`
	Location string `yaml:"location,omitempty"`

	LinkedIn  string `yaml:"linkedin,omitempty"`
	GitHub    string `yaml:"github,omitempty"`
	Portfolio string `yaml:"portfolio,omitempty"`

	Address *Address `yaml:"address,omitempty"`

	Summary string `yaml:"summary,omitempty"`

	TargetRoles      []string `yaml:"target_roles,omitempty"`
	TargetIndustries []string `yaml:"target_industries,omitempty"`
}

func (p *Profile) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if err := validateEmail(p.Email); err != nil {
		return err
	}

	if p.Phone != "" {
		if _, err := ValidatePhone(p.Phone); err != nil {
			return err
		}
	}

	if p.LinkedIn != "" {
		normalized, err := NormalizeLinkedIn(p.LinkedIn)
		if err != nil {
			return err
		}
		p.LinkedIn = normalized
	}

	if p.GitHub != "" {
		normalized, err := NormalizeGitHub(p.GitHub)
		if err != nil {
			return err
		}
		p.GitHub = normalized
	}

	if p.Address != nil {
		if err := p.Address.Validate(); err != nil {
			return fmt.Errorf("profile: %w", err)
		}
	}

	return nil
}

// LoadProfile reads and validates a profile.yaml file.
func LoadProfile(path string) (*Profile, error) {
	var profile Profile
	if err := loadYAMLFile(path, &profile, "profile"); err != nil {
		return nil, err
	}
	return &profile, nil
}
