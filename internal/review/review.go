// Package review runs completeness checks over a master resume. Each check
// inspects one section and reports issues a person should fix before
// tailoring, such as a missing summary or experience entries without
// bullets. Checks never fail the run for content problems, only for broken
// preconditions.
package review

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/resume"
)

// Check represents a single review step applied to a master resume.
type Check interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(deps Deps, master *resume.MasterResume) ([]Issue, error)
}

// Deps aggregates dependencies shared across all review checks.
type Deps struct {
	Logger *zap.Logger
}

// Issue is one finding reported by a check.
type Issue struct {
	// Section names the resume component the issue belongs to.
	Section string `json:"section"`
	Message string `json:"message"`
}

// Report collects all findings from one review run.
type Report struct {
	Issues []Issue `json:"issues"`
}

// Complete reports whether the run found no issues.
func (r *Report) Complete() bool { return len(r.Issues) == 0 }

// BySection groups the issues by their resume component.
func (r *Report) BySection() map[string][]string {
	grouped := make(map[string][]string)
	for _, issue := range r.Issues {
		grouped[issue.Section] = append(grouped[issue.Section], issue.Message)
	}
	return grouped
}

// Status represents runtime information about a check.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
}

// statusProvider is implemented by checks that supply detailed status.
type statusProvider interface {
	Status() Status
}

// DisableByName marks a check with the provided name as disabled while
// keeping it in the list.
func DisableByName(checks []Check, name, reason string) {
	for _, check := range checks {
		if check.Name() == name {
			check.Disable(reason)
		}
	}
}

// Run executes the supplied checks sequentially and aggregates their
// findings into one report.
func Run(deps Deps, checks []Check, master *resume.MasterResume) (*Report, error) {
	report := &Report{}

	for _, check := range checks {
		if !check.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("review check disabled", zap.String("name", check.Name()))
			}
			continue
		}

		issues, err := check.Apply(deps, master)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", check.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("review check",
				zap.String("name", check.Name()),
				zap.Int("issues", len(issues)),
			)
		}

		report.Issues = append(report.Issues, issues...)
	}

	return report, nil
}

// Describe returns status entries for the provided checks.
func Describe(checks []Check) []Status {
	statuses := make([]Status, 0, len(checks))
	for _, check := range checks {
		if reporter, ok := check.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    check.Name(),
			Enabled: check.IsEnabled(),
		})
	}
	return statuses
}

// DefaultChecks returns the standard review pipeline covering every resume
// component.
func DefaultChecks() []Check {
	return []Check{
		NewProfileCheck(),
		NewExperienceCheck(),
		NewSkillsCheck(),
		NewEducationCheck(),
		NewAchievementsCheck(),
	}
}
