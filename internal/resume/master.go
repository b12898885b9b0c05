package resume

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// Component file names inside a master resume directory.
const (
	ProfileFile      = "profile.yaml"
	ExperienceFile   = "experience.yaml"
	EducationFile    = "education.yaml"
	SkillsFile       = "skills.yaml"
	AchievementsFile = "achievements.md"
)

// MasterResume aggregates every component of one person's resume
// directory. The profile is required, everything else is optional.
type MasterResume struct {
	Profile      Profile
	Experience   Experience
	Education    Education
	Skills       Skills
	Achievements Achievements
}

// Load reads a master resume from its directory structure. A missing
// profile.yaml is an error; missing optional components yield empty
// sections.
func Load(dir string, logger *zap.Logger) (*MasterResume, error) {
	profile, err := LoadProfile(filepath.Join(dir, ProfileFile))
	if err != nil {
		return nil, err
	}

	master := &MasterResume{Profile: *profile}

	experiencePath := filepath.Join(dir, ExperienceFile)
	if fileExists(experiencePath) {
		experience, err := LoadExperience(experiencePath)
		if err != nil {
			return nil, err
		}
		master.Experience = *experience
	}

	educationPath := filepath.Join(dir, EducationFile)
	if fileExists(educationPath) {
		education, err := LoadEducation(educationPath)
		if err != nil {
			return nil, err
		}
		master.Education = *education
	}

	skillsPath := filepath.Join(dir, SkillsFile)
	if fileExists(skillsPath) {
		skills, err := LoadSkills(skillsPath)
		if err != nil {
			return nil, err
		}
		master.Skills = *skills
	}

	achievementsPath := filepath.Join(dir, AchievementsFile)
	if fileExists(achievementsPath) {
		achievements, err := LoadAchievements(achievementsPath, logger)
		if err != nil {
			return nil, err
		}
		master.Achievements = *achievements
	}

	return master, nil
}

// Save writes the master resume back to its directory structure, creating
// the directory when needed. Empty optional components are not written.
func (m *MasterResume) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating resume directory: %w", err)
	}

	if err := saveYAMLFile(filepath.Join(dir, ProfileFile), &m.Profile, "profile"); err != nil {
		return err
	}

	if len(m.Experience.Entries) > 0 {
		if err := saveYAMLFile(filepath.Join(dir, ExperienceFile), &m.Experience, "experience"); err != nil {
			return err
		}
	}

	if len(m.Education.Degrees) > 0 || len(m.Education.Certifications) > 0 {
		if err := saveYAMLFile(filepath.Join(dir, EducationFile), &m.Education, "education"); err != nil {
			return err
		}
	}

	if !m.Skills.IsEmpty() {
		if err := saveYAMLFile(filepath.Join(dir, SkillsFile), &m.Skills, "skills"); err != nil {
			return err
		}
	}

	if len(m.Achievements.Entries) > 0 {
		if err := m.Achievements.Save(filepath.Join(dir, AchievementsFile)); err != nil {
			return err
		}
	}

	return nil
}

// Keywords aggregates every keyword across skills, experience, and
// achievements, sorted and deduplicated, for ATS matching.
func (m *MasterResume) Keywords() []string {
	seen := make(map[string]bool)

	add := func(keyword string) {
		if keyword != "" {
			seen[keyword] = true
		}
	}

	for _, name := range m.Skills.TechnicalSkills() {
		add(name)
	}
	for _, soft := range m.Skills.SoftSkills {
		add(soft)
	}
	for _, entry := range m.Experience.Entries {
		for _, keyword := range entry.Keywords {
			add(keyword)
		}
	}
	for _, achievement := range m.Achievements.Entries {
		for _, keyword := range achievement.Keywords {
			add(keyword)
		}
	}

	keywords := make([]string, 0, len(seen))
	for keyword := range seen {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)
	return keywords
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
