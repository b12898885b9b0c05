package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/groundedcv/groundedcv/internal/resume"
	"github.com/groundedcv/groundedcv/internal/review"
	"github.com/groundedcv/groundedcv/internal/tailor"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Tailor the master resume to one job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		runTailor(cmd)
	},
}

func init() {
	rootCmd.AddCommand(tailorCmd)

	tailorCmd.Flags().String("job-file", "", "YAML file describing the job posting (title, company, description)")
	tailorCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation when the resume has review issues")
}

func runTailor(cmd *cobra.Command) {
	ctx := context.Background()

	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	jobFile := cmd.Flag("job-file").Value.String()
	if jobFile == "" {
		log.Fatal("a job posting is required", zap.String("hint", "pass --job-file pointing at a YAML file with title, company, and description"))
	}

	job, err := loadJob(jobFile)
	if err != nil {
		log.Fatal("loading the job posting", zap.Error(err))
	}

	master, err := resume.Load(masterResumeDir(config), log)
	if err != nil {
		log.Fatal("loading the master resume", zap.Error(err))
	}

	report, err := review.Run(review.Deps{Logger: log}, review.DefaultChecks(), master)
	if err != nil {
		log.Fatal("reviewing the master resume", zap.Error(err))
	}

	if !report.Complete() {
		for section, messages := range report.BySection() {
			log.Warn("resume section has issues",
				zap.String("section", section),
				zap.Strings("issues", messages),
			)
		}

		if cmd.Flag("auto-approve").Value.String() == "false" {
			confirm := promptui.Select{
				Label: "The master resume is incomplete. Tailor anyway?",
				Items: []string{"Yes", "No"},
			}
			_, answer, err := confirm.Run()
			if err != nil {
				log.Fatal("exiting", zap.Error(err))
			}
			if answer != "Yes" {
				log.Info("exiting", zap.String("reason", "declined at prompt"))
				return
			}
		}
	}

	matched, missing := tailor.KeywordCoverage(master, *job)
	log.Info("local keyword coverage",
		zap.Int("matched", len(matched)),
		zap.Int("missing", len(missing)),
	)

	tailorAgent, err := buildAgent(ctx, config, log)
	if err != nil {
		log.Fatal("building the tailoring agent", zap.Error(err))
	}

	tailorer := newTailorer(tailorAgent, config, log)

	result, err := tailorer.Run(ctx, master, *job)
	if err != nil {
		log.Fatal("tailoring failed", zap.Error(err))
	}

	log.Info("tailoring completed",
		zap.String("run_id", result.RunID),
		zap.Float64("fit_score", result.Outcome.FitScore),
		zap.Bool("fit", result.Outcome.Fit),
		zap.Int("tokens_in", result.Metadata.TokensIn),
		zap.Int("tokens_out", result.Metadata.TokensOut),
		zap.Float64("cost_usd", result.Metadata.CostUSD),
	)

	path, err := saveResult(tailoredDir(config), result)
	if err != nil {
		log.Fatal("saving the result", zap.Error(err))
	}

	log.Info("result written", zap.String("path", path))
}

// loadJob reads a job posting description from a YAML file.
func loadJob(path string) (*tailor.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var job tailor.Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	return &job, nil
}

// saveResult writes the tailoring result as pretty JSON under the
// tailored output directory.
func saveResult(dir string, result *tailor.Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}

	name := strings.ToLower(result.RunID) + ".json"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	return path, nil
}
