package store

import (
	"context"

	"github.com/rudransh-shrivastava/snd/internal/db"
)

// SettingsRepository defines configuration operations.
type SettingsRepository interface {
	Read(ctx context.Context) (Config, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

// HistoryRepository defines transfer history operations.
type HistoryRepository interface {
	Record(ctx context.Context, rec db.Transfer) error
	List(ctx context.Context, limit int) ([]db.Transfer, error)
}

var (
	_ SettingsRepository = (*SettingsStore)(nil)
	_ HistoryRepository  = (*HistoryStore)(nil)
)
