package resume

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Achievement is a single accomplishment in STAR format: Situation, Task,
// Action, Result.
type Achievement struct {
	Situation string
	Task      string
	Action    string
	Result    string

	Title    string
	Keywords []string
	// Metrics holds quantified results like "50%" or "$2M". When absent
	// they are extracted from the result text during validation.
	Metrics []string

	// RelatedExperience names the company or role this happened at.
	RelatedExperience string
}

var (
	percentPattern    = regexp.MustCompile(`\d+(?:\.\d+)?%`)
	dollarPattern     = regexp.MustCompile(`\$[\d,]+(?:\.\d{2})?[KMB]?`)
	multiplierPattern = regexp.MustCompile(`\d+[xX]`)
)

func (a *Achievement) Validate() error {
	for _, component := range []struct {
		name  string
		value string
	}{
		{"situation", a.Situation},
		{"task", a.Task},
		{"action", a.Action},
		{"result", a.Result},
	} {
		if strings.TrimSpace(component.value) == "" {
			return fmt.Errorf("achievement %q: %s is required", a.Title, component.name)
		}
	}

	if len(a.Metrics) == 0 {
		a.Metrics = append(a.Metrics, percentPattern.FindAllString(a.Result, -1)...)
		a.Metrics = append(a.Metrics, dollarPattern.FindAllString(a.Result, -1)...)
		a.Metrics = append(a.Metrics, multiplierPattern.FindAllString(a.Result, -1)...)
	}

	return nil
}

// Bullet condenses the achievement into a resume bullet emphasizing the
// action and result, truncated to maxLength characters.
func (a *Achievement) Bullet(maxLength int) string {
	bullet := a.Action + " " + a.Result
	if len(bullet) > maxLength {
		bullet = bullet[:maxLength-3] + "..."
	}
	return bullet
}

// MarkdownSection renders the achievement as a detailed Markdown block.
func (a *Achievement) MarkdownSection() string {
	var lines []string
	if a.Title != "" {
		lines = append(lines, "### "+a.Title)
	}
	lines = append(lines,
		"**Situation:** "+a.Situation,
		"**Task:** "+a.Task,
		"**Action:** "+a.Action,
		"**Result:** "+a.Result,
	)
	if len(a.Keywords) > 0 {
		lines = append(lines, "**Keywords:** "+strings.Join(a.Keywords, ", "))
	}
	return strings.Join(lines, "\n")
}

// Achievements is the accomplishments component, stored as achievements.md
// rather than YAML so people can edit it as prose.
type Achievements struct {
	Entries []Achievement
}

// Markdown renders all achievements as one document. Untitled entries get
// positional titles.
func (a *Achievements) Markdown() string {
	sections := []string{"# Achievements\n"}
	for i := range a.Entries {
		if a.Entries[i].Title == "" {
			a.Entries[i].Title = fmt.Sprintf("Achievement %d", i+1)
		}
		sections = append(sections, a.Entries[i].MarkdownSection(), "")
	}
	return strings.Join(sections, "\n")
}

var (
	sectionSplit = regexp.MustCompile(`(?m)^###\s+`)
	fieldHeader  = regexp.MustCompile(`(?i)\*\*(Situation|Task|Action|Result|Keywords):\*\*`)
)

// parseFields slices a section body into its bold-labeled fields. Values
// run from one header to the next, so they may span lines.
func parseFields(body string) map[string]string {
	headers := fieldHeader.FindAllStringSubmatchIndex(body, -1)
	fields := make(map[string]string, len(headers))
	for i, header := range headers {
		name := strings.ToLower(body[header[2]:header[3]])
		end := len(body)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		fields[name] = strings.TrimSpace(body[header[1]:end])
	}
	return fields
}

// ParseAchievements parses the achievements Markdown document. Sections
// missing a STAR component are skipped with a warning rather than failing
// the whole document.
func ParseAchievements(content string, logger *zap.Logger) (*Achievements, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("achievements: empty document")
	}

	var entries []Achievement

	sections := sectionSplit.Split(content, -1)
	for _, section := range sections[1:] {
		lines := strings.SplitN(strings.TrimSpace(section), "\n", 2)
		if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
			continue
		}

		achievement := Achievement{Title: strings.TrimSpace(lines[0])}
		body := ""
		if len(lines) == 2 {
			body = lines[1]
		}

		fields := parseFields(body)
		achievement.Situation = fields["situation"]
		achievement.Task = fields["task"]
		achievement.Action = fields["action"]
		achievement.Result = fields["result"]

		if keywords, ok := fields["keywords"]; ok {
			for _, keyword := range strings.Split(keywords, ",") {
				if keyword = strings.TrimSpace(keyword); keyword != "" {
					achievement.Keywords = append(achievement.Keywords, keyword)
				}
			}
		}

		var missing []string
		for _, field := range []string{"situation", "task", "action", "result"} {
			if fields[field] == "" {
				missing = append(missing, field)
			}
		}

		if len(missing) > 0 {
			logger.Warn("skipping achievement section with missing components",
				zap.String("title", achievement.Title),
				zap.Strings("missing", missing),
			)
			continue
		}

		if err := achievement.Validate(); err != nil {
			return nil, err
		}
		entries = append(entries, achievement)
	}

	return &Achievements{Entries: entries}, nil
}

// LoadAchievements reads and parses an achievements.md file.
func LoadAchievements(path string, logger *zap.Logger) (*Achievements, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading achievements: %w", err)
	}
	return ParseAchievements(string(data), logger)
}

// Save writes the achievements document to path.
func (a *Achievements) Save(path string) error {
	if err := os.WriteFile(path, []byte(a.Markdown()), 0o644); err != nil {
		return fmt.Errorf("saving achievements: %w", err)
	}
	return nil
}

// ByKeyword finds achievements tagged with a specific keyword.
func (a *Achievements) ByKeyword(keyword string) []Achievement {
	keyword = strings.ToLower(keyword)
	var matches []Achievement
	for _, entry := range a.Entries {
		for _, k := range entry.Keywords {
			if strings.Contains(strings.ToLower(k), keyword) {
				matches = append(matches, entry)
				break
			}
		}
	}
	return matches
}
