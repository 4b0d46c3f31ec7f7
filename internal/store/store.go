// Package store provides database access for settings and transfer history.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rudransh-shrivastava/snd/internal/db"
	"github.com/rudransh-shrivastava/snd/internal/protocol"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	KeySendMethod     = "send_method"
	KeyFollowSymlinks = "follow_symlinks"
	KeyDownloadDir    = "download_dir"
)

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid setting value")
)

// Config is the effective configuration: stored values over defaults.
type Config struct {
	SendMethod     protocol.Mode
	FollowSymlinks bool
	DownloadDir    string
}

func DefaultConfig() Config {
	dir := "Downloads"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, "Downloads")
	}
	return Config{
		SendMethod:     protocol.ModeSemiReliable,
		FollowSymlinks: false,
		DownloadDir:    dir,
	}
}

// Keys lists the recognised setting names in display order.
func Keys() []string {
	return []string{KeySendMethod, KeyFollowSymlinks, KeyDownloadDir}
}

type SettingsStore struct {
	DB *gorm.DB
}

func NewSettingsStore(gdb *gorm.DB) *SettingsStore {
	return &SettingsStore{DB: gdb}
}

// Set validates and stores one setting.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&db.Setting{Key: key, Value: value}).Error
}

// Get returns the effective value of key, falling back to its default.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return "", err
	}
	v, ok := all[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return v, nil
}

// All returns every effective setting as text.
func (s *SettingsStore) All(ctx context.Context) (map[string]string, error) {
	cfg, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		KeySendMethod:     cfg.SendMethod.String(),
		KeyFollowSymlinks: strconv.FormatBool(cfg.FollowSymlinks),
		KeyDownloadDir:    cfg.DownloadDir,
	}, nil
}

func (s *SettingsStore) Read(ctx context.Context) (Config, error) {
	var rows []db.Setting
	if err := s.DB.WithContext(ctx).Find(&rows).Error; err != nil {
		return Config{}, fmt.Errorf("reading settings: %w", err)
	}

	cfg := DefaultConfig()
	for _, row := range rows {
		switch row.Key {
		case KeySendMethod:
			mode, err := protocol.ParseMode(row.Value)
			if err != nil {
				return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, row.Key, err)
			}
			cfg.SendMethod = mode
		case KeyFollowSymlinks:
			follow, err := strconv.ParseBool(row.Value)
			if err != nil {
				return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, row.Key, err)
			}
			cfg.FollowSymlinks = follow
		case KeyDownloadDir:
			cfg.DownloadDir = row.Value
		}
	}
	return cfg, nil
}

func validate(key, value string) error {
	switch key {
	case KeySendMethod:
		if _, err := protocol.ParseMode(value); err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
		}
	case KeyFollowSymlinks:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
		}
	case KeyDownloadDir:
		if value == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidValue, key)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}
