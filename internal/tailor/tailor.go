// Package tailor turns a master resume plus a job posting into tailored
// resume content by prompting the AI service and parsing its structured
// response. The model is instructed to quote only facts present in the
// resume payload; the prompt is the anti-hallucination boundary.
package tailor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/agent"
	"github.com/groundedcv/groundedcv/internal/resume"
	"github.com/groundedcv/groundedcv/internal/utils"
)

// caller is the slice of agent.Agent the tailorer needs.
type caller interface {
	Call(ctx context.Context, prompt string, opts ...agent.CallOption) (string, agent.Metadata, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Job is one posting to tailor against.
type Job struct {
	Title       string `json:"title" mapstructure:"title"`
	Company     string `json:"company" mapstructure:"company"`
	Description string `json:"description" mapstructure:"description"`
}

func (j *Job) Validate() error {
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("job title is required")
	}
	if strings.TrimSpace(j.Description) == "" {
		return fmt.Errorf("job description is required")
	}
	return nil
}

// Outcome is the structured tailoring result parsed from the model
// response.
type Outcome struct {
	Summary         string   `json:"summary" mapstructure:"summary"`
	Highlights      []string `json:"highlights" mapstructure:"highlights"`
	MatchedKeywords []string `json:"matched_keywords" mapstructure:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords" mapstructure:"missing_keywords"`
	FitScore        float64  `json:"fit_score" mapstructure:"fit_score"`
	Reason          string   `json:"reason" mapstructure:"reason"`

	// Fit is derived from FitScore against the configured threshold.
	Fit bool `json:"fit" mapstructure:"-"`
}

// Result is one completed tailoring run.
type Result struct {
	RunID    string         `json:"run_id"`
	Outcome  Outcome        `json:"outcome"`
	Metadata agent.Metadata `json:"metadata"`
	Raw      string         `json:"-"`
}

// Tailorer runs tailoring calls against an agent.
type Tailorer struct {
	agent     caller
	minScore  float64
	logger    *zap.Logger
	maxLogLen int
}

// New creates a Tailorer. Results scoring below minScore are marked unfit.
func New(agent caller, logger *zap.Logger, minScore float64, maxLogLength int) *Tailorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Tailorer{
		agent:     agent,
		minScore:  minScore,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Run tailors the master resume to one job posting.
func (t *Tailorer) Run(ctx context.Context, master *resume.MasterResume, job Job) (*Result, error) {
	if master == nil {
		return nil, fmt.Errorf("master resume is required")
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	resumeJSON, err := json.MarshalIndent(resumePayload(master), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resume payload: %w", err)
	}
	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	runID := uuid.NewString()
	prompt := buildPrompt(string(resumeJSON), string(jobJSON))

	t.logger.Debug("tailoring request",
		zap.String("run_id", runID),
		zap.String("job_title", job.Title),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, t.maxLogLen)),
	)

	raw, metadata, err := t.agent.Call(ctx, prompt)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("tailoring response",
		zap.String("run_id", runID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, t.maxLogLen)),
	)

	outcome, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	outcome.Fit = true
	if t.minScore > 0 && outcome.FitScore < t.minScore {
		t.logger.Debug("marking result unfit by score threshold",
			zap.String("run_id", runID),
			zap.Float64("score", outcome.FitScore),
			zap.Float64("threshold", t.minScore),
		)
		outcome.Fit = false
	}

	return &Result{
		RunID:    runID,
		Outcome:  *outcome,
		Metadata: metadata,
		Raw:      raw,
	}, nil
}

// resumePayload projects the master resume into the JSON shape the prompt
// template expects.
func resumePayload(master *resume.MasterResume) map[string]any {
	return map[string]any{
		"profile":      master.Profile,
		"experience":   master.Experience.Entries,
		"education":    master.Education,
		"skills":       master.Skills,
		"achievements": master.Achievements.Entries,
		"keywords":     master.Keywords(),
	}
}

func buildPrompt(resumeJSON, jobJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Resume:\n{{RESUME_JSON}}\n\nJob:\n{{JOB_POSTING}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{RESUME_JSON}}", resumeJSON)
	prompt = strings.ReplaceAll(prompt, "{{JOB_POSTING}}", jobJSON)
	return prompt
}

// parseResponse extracts the JSON object from the model response and
// decodes it leniently, tolerating stringy numbers and single values where
// lists are expected.
func parseResponse(raw string) (*Outcome, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse tailoring response: %w", err)
	}

	var outcome Outcome
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &outcome,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build response decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode tailoring response: %w", err)
	}

	if outcome.FitScore < 0 || outcome.FitScore > 1 {
		return nil, fmt.Errorf("fit score %v out of range", outcome.FitScore)
	}

	return &outcome, nil
}

// extractJSON strips Markdown code fences the model tends to wrap JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// KeywordCoverage reports which of the resume's keywords appear in the
// posting text, computed locally without the model. It is a cheap
// pre-check before a tailoring run.
func KeywordCoverage(master *resume.MasterResume, job Job) (matched, missing []string) {
	description := strings.ToLower(job.Description)
	for _, keyword := range master.Keywords() {
		if strings.Contains(description, strings.ToLower(keyword)) {
			matched = append(matched, keyword)
		} else {
			missing = append(missing, keyword)
		}
	}
	return matched, missing
}
