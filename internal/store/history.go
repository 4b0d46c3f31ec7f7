package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rudransh-shrivastava/snd/internal/db"
	"gorm.io/gorm"
)

const (
	DirectionSend    = "send"
	DirectionReceive = "receive"

	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

type HistoryStore struct {
	DB *gorm.DB
}

func NewHistoryStore(gdb *gorm.DB) *HistoryStore {
	return &HistoryStore{DB: gdb}
}

// Record stores a transfer, assigning an ID and timestamp when missing.
func (h *HistoryStore) Record(ctx context.Context, rec db.Transfer) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	if err := h.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("recording transfer: %w", err)
	}
	return nil
}

// List returns up to limit transfers, newest first. limit <= 0 means all.
func (h *HistoryStore) List(ctx context.Context, limit int) ([]db.Transfer, error) {
	var out []db.Transfer
	q := h.DB.WithContext(ctx).Order("created_at DESC").Order("rowid DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	return out, nil
}
