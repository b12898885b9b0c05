package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/resume"
	"github.com/groundedcv/groundedcv/internal/review"
)

var vetCmd = &cobra.Command{
	Use:   "vet",
	Short: "Check the master resume for missing or incomplete data",
	Run: func(cmd *cobra.Command, _ []string) {
		runVet(cmd)
	},
}

func init() {
	rootCmd.AddCommand(vetCmd)

	vetCmd.Flags().StringSlice("skip", nil, "review checks to skip (profile, experience, skills, education, achievements)")
}

func runVet(cmd *cobra.Command) {
	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	master, err := resume.Load(masterResumeDir(config), log)
	if err != nil {
		log.Fatal("loading the master resume", zap.Error(err))
	}

	checks := review.DefaultChecks()
	if skipped, err := cmd.Flags().GetStringSlice("skip"); err == nil {
		for _, name := range skipped {
			review.DisableByName(checks, name, "skipped via flag")
		}
	}

	report, err := review.Run(review.Deps{Logger: log}, checks, master)
	if err != nil {
		log.Fatal("review failed", zap.Error(err))
	}

	if report.Complete() {
		fmt.Println("master resume is complete")
		return
	}

	for section, messages := range report.BySection() {
		for _, message := range messages {
			fmt.Printf("%s: %s\n", section, message)
		}
	}
	os.Exit(1)
}
