package review

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/resume"
)

type profileCheck struct{}

// NewProfileCheck creates a check for missing contact and summary fields.
func NewProfileCheck() Check {
	return &profileCheck{}
}

func (c *profileCheck) Name() string { return "profile" }

func (c *profileCheck) Disable(string) {}

func (c *profileCheck) IsEnabled() bool { return true }

func (c *profileCheck) Apply(_ Deps, master *resume.MasterResume) ([]Issue, error) {
	var issues []Issue

	if master.Profile.Phone == "" {
		issues = append(issues, Issue{Section: "profile", Message: "missing phone number"})
	}
	if master.Profile.LinkedIn == "" {
		issues = append(issues, Issue{Section: "profile", Message: "missing LinkedIn profile"})
	}
	if master.Profile.Summary == "" {
		issues = append(issues, Issue{Section: "profile", Message: "missing professional summary"})
	}

	return issues, nil
}

type experienceCheck struct{}

// NewExperienceCheck creates a check for empty or bullet-less work history.
func NewExperienceCheck() Check {
	return &experienceCheck{}
}

func (c *experienceCheck) Name() string { return "experience" }

func (c *experienceCheck) Disable(string) {}

func (c *experienceCheck) IsEnabled() bool { return true }

func (c *experienceCheck) Apply(deps Deps, master *resume.MasterResume) ([]Issue, error) {
	if len(master.Experience.Entries) == 0 {
		return []Issue{{Section: "experience", Message: "no work experience entries"}}, nil
	}

	var issues []Issue
	for i, entry := range master.Experience.Entries {
		if len(entry.Bullets) == 0 {
			issues = append(issues, Issue{
				Section: "experience",
				Message: fmt.Sprintf("entry %d (%s) has no achievement bullets", i+1, entry.Company),
			})
		}
	}

	if deps.Logger != nil && len(issues) > 0 {
		deps.Logger.Debug("experience entries without bullets", zap.Int("count", len(issues)))
	}

	return issues, nil
}

type skillsCheck struct{}

// NewSkillsCheck creates a check for an empty technical skills inventory.
func NewSkillsCheck() Check {
	return &skillsCheck{}
}

func (c *skillsCheck) Name() string { return "skills" }

func (c *skillsCheck) Disable(string) {}

func (c *skillsCheck) IsEnabled() bool { return true }

func (c *skillsCheck) Apply(_ Deps, master *resume.MasterResume) ([]Issue, error) {
	if len(master.Skills.Languages) == 0 && len(master.Skills.Frameworks) == 0 {
		return []Issue{{Section: "skills", Message: "no technical skills listed"}}, nil
	}
	return nil, nil
}

type educationCheck struct {
	disabled bool
	reason   string
}

// NewEducationCheck creates a check flagging expired certifications.
func NewEducationCheck() Check {
	return &educationCheck{}
}

func (c *educationCheck) Name() string { return "education" }

func (c *educationCheck) Disable(reason string) {
	c.disabled = true
	c.reason = reason
}

func (c *educationCheck) IsEnabled() bool { return !c.disabled }

func (c *educationCheck) Apply(_ Deps, master *resume.MasterResume) ([]Issue, error) {
	var issues []Issue
	for _, cert := range master.Education.Certifications {
		if cert.IsExpired() {
			issues = append(issues, Issue{
				Section: "education",
				Message: fmt.Sprintf("certification %q has expired", cert.Name),
			})
		}
	}
	return issues, nil
}

func (c *educationCheck) Status() Status {
	return Status{Name: c.Name(), Enabled: c.IsEnabled(), Reason: c.reason}
}

type achievementsCheck struct {
	disabled bool
	reason   string
}

// NewAchievementsCheck creates a check for achievements without quantified
// results. Unquantified achievements make weak resume bullets.
func NewAchievementsCheck() Check {
	return &achievementsCheck{}
}

func (c *achievementsCheck) Name() string { return "achievements" }

func (c *achievementsCheck) Disable(reason string) {
	c.disabled = true
	c.reason = reason
}

func (c *achievementsCheck) IsEnabled() bool { return !c.disabled }

func (c *achievementsCheck) Apply(_ Deps, master *resume.MasterResume) ([]Issue, error) {
	var issues []Issue
	for _, achievement := range master.Achievements.Entries {
		if len(achievement.Metrics) == 0 {
			issues = append(issues, Issue{
				Section: "achievements",
				Message: fmt.Sprintf("achievement %q has no quantified results", achievement.Title),
			})
		}
	}
	return issues, nil
}

func (c *achievementsCheck) Status() Status {
	return Status{Name: c.Name(), Enabled: c.IsEnabled(), Reason: c.reason}
}
