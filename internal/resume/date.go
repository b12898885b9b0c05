package resume

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Date is a calendar date accepted in the flexible formats people actually
// write in resumes: "2024-01-15", "01/2024", "2024", or "January 2024".
// The words "present" and "current" parse to the zero Date, which models
// an ongoing position. Dates always marshal back as YYYY-MM-DD.
type Date struct {
	time.Time
}

var (
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthYearPattern = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
	yearPattern      = regexp.MustCompile(`^\d{4}$`)
	namedMonth       = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{4})$`)
)

var monthNames = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// ParseDate parses a flexible date string. "present" and "current" return
// the zero Date.
func ParseDate(value string) (Date, error) {
	s := strings.TrimSpace(value)

	switch strings.ToLower(s) {
	case "present", "current":
		return Date{}, nil
	}

	if isoDatePattern.MatchString(s) {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Date{}, fmt.Errorf("invalid date %q: %w", value, err)
		}
		return Date{t}, nil
	}

	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return Date{}, fmt.Errorf("invalid date %q: month out of range", value)
		}
		return Date{time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)}, nil
	}

	if yearPattern.MatchString(s) {
		year, _ := strconv.Atoi(s)
		return Date{time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)}, nil
	}

	if m := namedMonth.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[1])]; ok {
			year, _ := strconv.Atoi(m[2])
			return Date{time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}, nil
		}
	}

	return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD, MM/YYYY, YYYY, or 'Month YYYY'", value)
}

func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (interface{}, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format("2006-01-02"), nil
}

// monthsUntil counts whole months between two dates, ignoring days.
func (d Date) monthsUntil(end Date) int {
	return (end.Year()-d.Year())*12 + int(end.Month()) - int(d.Month())
}
