package contextstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/types"
)

// FileStore keeps the market context in one plain-text file. Writes go to a
// temp file in the same directory and are renamed into place, so a reader
// never sees a partial value.
type FileStore struct {
	path   string
	maxAge time.Duration
}

var _ interfaces.ContextStore = (*FileStore)(nil)

func NewFileStore(path string, maxAge time.Duration) *FileStore {
	return &FileStore{path: path, maxAge: maxAge}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(ctx context.Context, text string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &types.PersistError{Op: "save", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &types.PersistError{Op: "save", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &types.PersistError{Op: "save", Path: s.path, Err: cause}
	}

	if _, err := tmp.WriteString(text); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &types.PersistError{Op: "save", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return &types.PersistError{Op: "save", Path: s.path, Err: err}
	}

	logger.Info(ctx, "Market context saved", "path", s.path, "bytes", len(text))
	return nil
}

func (s *FileStore) Load(ctx context.Context) (types.MarketContext, bool, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return types.MarketContext{}, false, nil
	}
	if err != nil {
		return types.MarketContext{}, false, &types.PersistError{Op: "load", Path: s.path, Err: err}
	}

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return types.MarketContext{}, false, nil
	}
	if err != nil {
		return types.MarketContext{}, false, &types.PersistError{Op: "load", Path: s.path, Err: err}
	}

	mc := types.MarketContext{Text: string(b), UpdatedAt: info.ModTime()}
	if age := time.Since(mc.UpdatedAt); s.maxAge > 0 && age > s.maxAge {
		logger.Warn(ctx, "Market context is stale",
			"path", s.path,
			"age", age.Round(time.Second).String(),
			"max_age", s.maxAge.String(),
		)
	}
	return mc, true, nil
}

func (s *FileStore) String() string {
	return fmt.Sprintf("file:%s", s.path)
}
