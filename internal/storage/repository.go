package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mtuyar/habitd/internal/model"
)

const (
	DriverSQLite = "sqlite"
	DriverJSON   = "json"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

// Store persists the ordered task list as a whole.
type Store interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
	Close() error
}

// Open creates the parent directory of path and opens the store for driver.
// SQLite stores are migrated before use.
func Open(driver, path string) (Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	switch driver {
	case DriverSQLite:
		repo, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		if err := MigrateUp(repo.db); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil
	case DriverJSON:
		return NewJSONStore(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
