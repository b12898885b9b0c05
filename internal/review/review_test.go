package review

import (
	"errors"
	"testing"

	"github.com/groundedcv/groundedcv/internal/resume"
)

func completeMaster() *resume.MasterResume {
	return &resume.MasterResume{
		Profile: resume.Profile{
			Name:     "Jane Doe",
			Email:    "jane@example.com",
			Phone:    "+1 (555) 123-4567",
			LinkedIn: "https://linkedin.com/in/jane-doe",
			Summary:  "Backend engineer.",
		},
		Experience: resume.Experience{Entries: []resume.ExperienceEntry{
			{
				Title: "Engineer", Company: "Acme", IsCurrent: true,
				Bullets: []string{"Led the billing migration"},
			},
		}},
		Skills: resume.Skills{
			Languages: []resume.SkillEntry{{Name: "Go"}},
		},
		Achievements: resume.Achievements{Entries: []resume.Achievement{
			{
				Title: "Billing", Situation: "s", Task: "t", Action: "a",
				Result: "r", Metrics: []string{"75%"},
			},
		}},
	}
}

func TestRunCompleteResume(t *testing.T) {
	report, err := Run(Deps{}, DefaultChecks(), completeMaster())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Complete() {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
}

func TestRunFlagsMissingSections(t *testing.T) {
	master := completeMaster()
	master.Profile.Phone = ""
	master.Profile.Summary = ""
	master.Experience.Entries[0].Bullets = nil
	master.Skills.Languages = nil
	master.Achievements.Entries[0].Metrics = nil

	report, err := Run(Deps{}, DefaultChecks(), master)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	grouped := report.BySection()
	if len(grouped["profile"]) != 2 {
		t.Fatalf("expected 2 profile issues, got %v", grouped["profile"])
	}
	if len(grouped["experience"]) != 1 {
		t.Fatalf("expected 1 experience issue, got %v", grouped["experience"])
	}
	if len(grouped["skills"]) != 1 {
		t.Fatalf("expected 1 skills issue, got %v", grouped["skills"])
	}
	if len(grouped["achievements"]) != 1 {
		t.Fatalf("expected 1 achievements issue, got %v", grouped["achievements"])
	}
}

func TestRunEmptyExperience(t *testing.T) {
	master := completeMaster()
	master.Experience.Entries = nil

	report, err := Run(Deps{}, DefaultChecks(), master)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issues := report.BySection()["experience"]
	if len(issues) != 1 || issues[0] != "no work experience entries" {
		t.Fatalf("unexpected experience issues %v", issues)
	}
}

func TestDisableByName(t *testing.T) {
	checks := DefaultChecks()
	DisableByName(checks, "achievements", "skipped in fast mode")

	master := completeMaster()
	master.Achievements.Entries[0].Metrics = nil

	report, err := Run(Deps{}, checks, master)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.BySection()["achievements"]) != 0 {
		t.Fatal("expected disabled check to be skipped")
	}

	statuses := Describe(checks)
	for _, status := range statuses {
		if status.Name == "achievements" {
			if status.Enabled {
				t.Fatal("expected achievements check to report disabled")
			}
			if status.Reason != "skipped in fast mode" {
				t.Fatalf("unexpected reason %q", status.Reason)
			}
		}
	}
}

type failingCheck struct{}

func (failingCheck) Name() string         { return "failing" }
func (failingCheck) Disable(string)       {}
func (failingCheck) IsEnabled() bool      { return true }
func (failingCheck) Apply(Deps, *resume.MasterResume) ([]Issue, error) {
	return nil, errors.New("boom")
}

func TestRunStopsOnCheckError(t *testing.T) {
	_, err := Run(Deps{}, []Check{failingCheck{}}, completeMaster())
	if err == nil {
		t.Fatal("expected error")
	}
}
