package types

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects which kind of analysis a cycle performs.
type Mode string

const (
	// ModeContext produces the slow-changing macro summary from long timeframes.
	ModeContext Mode = "context"
	// ModeTactical produces a short-term recommendation conditioned on the stored context.
	ModeTactical Mode = "tactical"
	// ModeSinglePass is the webhook analysis: one prompt, no stored context.
	ModeSinglePass Mode = "single"
)

// ParseMode accepts the command-line spellings (contexto, intradia) as well as
// the internal names of the two loop modes. Single-pass runs only behind the
// webhook.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contexto", "context":
		return ModeContext, nil
	case "intradia", "intradía", "tactical":
		return ModeTactical, nil
	}
	return "", fmt.Errorf("unknown mode %q: must be 'contexto' or 'intradia'", s)
}

// Timeframe is a chart interval code plus the human label used in prompts.
type Timeframe struct {
	Code  string `yaml:"code" json:"code" validate:"required"`
	Label string `yaml:"label" json:"label" validate:"required"`
}

func (tf Timeframe) String() string {
	return tf.Label + " (" + tf.Code + ")"
}

// Capture is one rendered chart image.
type Capture struct {
	Timeframe Timeframe
	PNG       []byte
	TakenAt   time.Time
}

// CaptureSet is the ordered output of the capture phase of one cycle.
type CaptureSet struct {
	Symbol   string
	Mode     Mode
	Captures []Capture
}

// Labels returns the timeframe labels in capture order.
func (s CaptureSet) Labels() []string {
	out := make([]string, 0, len(s.Captures))
	for _, c := range s.Captures {
		out = append(out, c.Timeframe.Label)
	}
	return out
}

// MarketContext is the persisted macro analysis.
type MarketContext struct {
	Text      string
	UpdatedAt time.Time
}

// CycleResult summarises one completed cycle.
type CycleResult struct {
	CycleID    string        `json:"cycle_id"`
	Symbol     string        `json:"symbol"`
	Mode       Mode          `json:"mode"`
	Timeframes []string      `json:"timeframes"`
	Analysis   string        `json:"analysis"`
	Delivered  bool          `json:"delivered"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}
