package captureobs

import (
	"context"
	"errors"
	"testing"

	"chart-relay-bot/internal/types"
)

type stubCapturer struct {
	err error
}

func (s stubCapturer) Capture(ctx context.Context, symbol string, tf types.Timeframe) (types.Capture, error) {
	if s.err != nil {
		return types.Capture{}, s.err
	}
	return types.Capture{Timeframe: tf, PNG: []byte("png")}, nil
}

func TestWrapPassesThrough(t *testing.T) {
	tf := types.Timeframe{Code: "60", Label: "1 Hora"}

	c, err := Wrap(stubCapturer{}).Capture(context.Background(), "BTCUSDT", tf)
	if err != nil || string(c.PNG) != "png" || c.Timeframe != tf {
		t.Errorf("Unexpected capture %+v err=%v", c, err)
	}

	cause := &types.CaptureError{Symbol: "BTCUSDT", Timeframe: tf, Err: errors.New("timeout")}
	if _, err := Wrap(stubCapturer{err: cause}).Capture(context.Background(), "BTCUSDT", tf); !errors.Is(err, types.ErrCapture) {
		t.Errorf("Expected the capture error unchanged, got %v", err)
	}
}
