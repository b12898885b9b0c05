package agent

import (
	"strings"
	"time"
)

// Metadata describes one agent execution. It reflects only the attempt
// whose result was returned to the caller; usage from failed attempts is
// discarded.
type Metadata struct {
	Agent       string    `json:"agent"`
	Model       string    `json:"model"`
	TokensIn    int       `json:"tokens_in"`
	TokensOut   int       `json:"tokens_out"`
	LatencyMS   int64     `json:"latency_ms"`
	CostUSD     float64   `json:"cost_usd"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	SessionID   string    `json:"session_id,omitempty"`
}

// pricing holds USD rates per million tokens, used only when the provider
// did not report a cost itself.
type pricing struct {
	input  float64
	output float64
}

var modelPricing = map[string]pricing{
	"gemini-2.5-pro":        {input: 1.25, output: 10.00},
	"gemini-2.5-flash":      {input: 0.30, output: 2.50},
	"gemini-2.5-flash-lite": {input: 0.10, output: 0.40},
}

// estimateCost computes a fallback cost for models with known pricing.
// Unknown models report zero rather than a guess.
func estimateCost(model string, tokensIn, tokensOut int) float64 {
	rates, ok := modelPricing[strings.TrimSpace(model)]
	if !ok {
		return 0
	}

	const million = 1_000_000
	return float64(tokensIn)/million*rates.input + float64(tokensOut)/million*rates.output
}
