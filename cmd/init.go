package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/resume"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a master resume directory with a guided profile setup",
	Run: func(_ *cobra.Command, _ []string) {
		runInit()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit() {
	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	dir := masterResumeDir(config)
	profilePath := filepath.Join(dir, resume.ProfileFile)
	if _, err := os.Stat(profilePath); err == nil {
		log.Fatal("profile already exists", zap.String("path", profilePath))
	}

	profile, err := promptProfile()
	if err != nil {
		log.Fatal("exiting", zap.Error(err))
	}

	master := &resume.MasterResume{Profile: *profile}
	if err := master.Save(dir); err != nil {
		log.Fatal("saving the master resume", zap.Error(err))
	}

	fmt.Printf("created %s\n", profilePath)
	fmt.Println("add experience.yaml, skills.yaml, education.yaml, and achievements.md alongside it, then run `groundedcv vet`")
}

// promptProfile walks through the required and common profile fields.
func promptProfile() (*resume.Profile, error) {
	profile := &resume.Profile{}

	prompts := []struct {
		label    string
		target   *string
		validate promptui.ValidateFunc
	}{
		{
			label:  "Full name",
			target: &profile.Name,
			validate: func(input string) error {
				if strings.TrimSpace(input) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			},
		},
		{
			label:  "Email",
			target: &profile.Email,
		},
		{
			label:  "Phone (optional)",
			target: &profile.Phone,
		},
		{
			label:  "Location, e.g. Portland, OR (optional)",
			target: &profile.Location,
		},
		{
			label:  "LinkedIn username or URL (optional)",
			target: &profile.LinkedIn,
		},
		{
			label:  "GitHub username or URL (optional)",
			target: &profile.GitHub,
		},
		{
			label:  "Professional summary (optional)",
			target: &profile.Summary,
		},
	}

	for _, p := range prompts {
		input := promptui.Prompt{Label: p.label, Validate: p.validate}
		value, err := input.Run()
		if err != nil {
			return nil, err
		}
		*p.target = strings.TrimSpace(value)
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return profile, nil
}
