package notify

import (
	"context"
	"testing"
)

type recordingNotifier struct {
	sent []string
}

func (r *recordingNotifier) Notify(ctx context.Context, text string) error {
	r.sent = append(r.sent, text)
	return nil
}

func TestKeywordFilter(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		deliver bool
	}{
		{"buy", "COMPRA en 64.200, stop 63.500", true},
		{"sell", "Señal: VENTA bajo el soporte", true},
		{"lowercase", "recomendación: compra moderada", true},
		{"wait only", "ESPERA. Sin confirmación en 15m.", false},
		{"empty", "", false},
		{"substring", "COMPRAR en retroceso", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingNotifier{}
			f := NewKeywordFilter(rec, nil)

			if err := f.Notify(context.Background(), tt.text); err != nil {
				t.Fatalf("Notify: %v", err)
			}
			if got := len(rec.sent) == 1; got != tt.deliver {
				t.Errorf("delivered = %v, want %v", got, tt.deliver)
			}
			if f.Admits(tt.text) != tt.deliver {
				t.Errorf("Admits(%q) disagrees with Notify", tt.text)
			}
		})
	}
}

func TestKeywordFilterCustomKeywords(t *testing.T) {
	rec := &recordingNotifier{}
	f := NewKeywordFilter(rec, []string{" long ", "short"})

	_ = f.Notify(context.Background(), "go LONG here")
	_ = f.Notify(context.Background(), "COMPRA")

	if len(rec.sent) != 1 || rec.sent[0] != "go LONG here" {
		t.Errorf("Expected only the LONG message to pass, got %v", rec.sent)
	}
}
