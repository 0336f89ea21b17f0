package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"chart-relay-bot/internal/types"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// Journal writes one JSON line per finished cycle into a daily file and
// optionally archives the PNG captures next to it:
//
//	<dir>/analyses/2006-01-02.jsonl
//	<dir>/captures/2006-01-02/<symbol>_<code>_<uuid>.png
type Journal struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

type Entry struct {
	Time       string   `json:"time"`
	CycleID    string   `json:"cycle_id"`
	Symbol     string   `json:"symbol"`
	Mode       string   `json:"mode"`
	Timeframes []string `json:"timeframes"`
	Outcome    string   `json:"outcome"`
	Delivered  bool     `json:"delivered"`
	DurationMS int64    `json:"duration_ms"`
	Analysis   string   `json:"analysis,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func New(dir string) *Journal {
	return &Journal{dir: dir, now: time.Now}
}

func (j *Journal) Dir() string {
	return j.dir
}

func (j *Journal) analysesFilepath(t time.Time) string {
	return filepath.Join(j.dir, "analyses", t.UTC().Format("2006-01-02")+".jsonl")
}

// AppendAnalysis records a finished cycle. Time is set by the journal.
func (j *Journal) AppendAnalysis(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.now().UTC()
	e.Time = now.Format(time.RFC3339)
	p := j.analysesFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// SaveCapture archives a chart image and returns its path.
func (j *Journal) SaveCapture(symbol string, c types.Capture) (string, error) {
	taken := c.TakenAt
	if taken.IsZero() {
		taken = j.now()
	}
	dir := filepath.Join(j.dir, "captures", taken.UTC().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s_%s.png", sanitize(symbol), sanitize(c.Timeframe.Code), uuid.NewString())
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, c.PNG, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, s)
}

// CompressOlder gzips analysis files older than retentionDays. Archived PNGs
// are already compressed and are left alone. A file that fails is reported
// and the walk goes on with the rest.
func (j *Journal) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	cutoff := j.now().AddDate(0, 0, -retentionDays)
	root := filepath.Join(j.dir, "analyses")

	var errs []error
	walkErr := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			errs = append(errs, err)
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// already compressed on a previous pass
		if _, err := os.Stat(gz); err == nil {
			if err := os.Remove(p); err != nil {
				errs = append(errs, err)
			}
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}
	return errors.Join(errs...)
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	gw := gzip.NewWriter(out)
	_, copyErr := io.Copy(gw, in)
	closeErr := gw.Close()
	fileErr := out.Close()
	if err := errors.Join(copyErr, closeErr, fileErr); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("compress %s: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove %s: %w", src, err)
	}
	return nil
}
