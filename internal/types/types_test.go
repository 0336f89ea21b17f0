package types

import (
	"errors"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"contexto", ModeContext, false},
		{" CONTEXT ", ModeContext, false},
		{"intradia", ModeTactical, false},
		{"intradía", ModeTactical, false},
		{"tactical", ModeTactical, false},
		{"single", "", true},
		{"rapido", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestErrorsMatchSentinels(t *testing.T) {
	cause := errors.New("timeout")
	capErr := &CaptureError{Symbol: "BTCUSDT", Timeframe: Timeframe{Code: "15", Label: "15 Minutos"}, Err: cause}
	if !errors.Is(capErr, ErrCapture) || !errors.Is(capErr, cause) {
		t.Errorf("CaptureError must match ErrCapture and its cause")
	}
	if errors.Is(capErr, ErrAnalysis) {
		t.Error("CaptureError must not match ErrAnalysis")
	}
	if !errors.Is(&InputError{Field: "symbol", Reason: "is missing"}, ErrInput) {
		t.Error("InputError must match ErrInput")
	}
}
