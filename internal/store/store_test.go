package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rudransh-shrivastava/snd/internal/db"
	"github.com/rudransh-shrivastava/snd/internal/protocol"
	"github.com/rudransh-shrivastava/snd/internal/store"
)

func setupTestDB(t *testing.T) (*store.SettingsStore, *store.HistoryStore) {
	t.Helper()
	gdb, err := db.Open(db.MemoryPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })
	return store.NewSettingsStore(gdb), store.NewHistoryStore(gdb)
}

func TestSettingsStore_Defaults(t *testing.T) {
	ss, _ := setupTestDB(t)

	cfg, err := ss.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	want := store.DefaultConfig()
	if cfg != want {
		t.Errorf("expected defaults %+v, got %+v", want, cfg)
	}
	if cfg.SendMethod != protocol.ModeSemiReliable {
		t.Errorf("expected semi-reliable default, got %v", cfg.SendMethod)
	}
}

func TestSettingsStore_SetOverridesDefault(t *testing.T) {
	ss, _ := setupTestDB(t)
	ctx := context.Background()

	if err := ss.Set(ctx, store.KeySendMethod, "legacy"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := ss.Set(ctx, store.KeyFollowSymlinks, "true"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := ss.Set(ctx, store.KeyDownloadDir, "/srv/incoming"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	cfg, err := ss.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cfg.SendMethod != protocol.ModeLegacy {
		t.Errorf("expected legacy, got %v", cfg.SendMethod)
	}
	if !cfg.FollowSymlinks {
		t.Error("expected follow_symlinks to be true")
	}
	if cfg.DownloadDir != "/srv/incoming" {
		t.Errorf("expected download dir '/srv/incoming', got %q", cfg.DownloadDir)
	}
}

func TestSettingsStore_SetTwiceUpdates(t *testing.T) {
	ss, _ := setupTestDB(t)
	ctx := context.Background()

	_ = ss.Set(ctx, store.KeySendMethod, "legacy")
	if err := ss.Set(ctx, store.KeySendMethod, "semi-reliable"); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	v, err := ss.Get(ctx, store.KeySendMethod)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "semi-reliable" {
		t.Errorf("expected 'semi-reliable', got %q", v)
	}
}

func TestSettingsStore_RejectsBadInput(t *testing.T) {
	ss, _ := setupTestDB(t)
	ctx := context.Background()

	if err := ss.Set(ctx, "colour", "blue"); !errors.Is(err, store.ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
	if err := ss.Set(ctx, store.KeySendMethod, "carrier-pigeon"); !errors.Is(err, store.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if err := ss.Set(ctx, store.KeyFollowSymlinks, "sometimes"); !errors.Is(err, store.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := ss.Get(ctx, "colour"); !errors.Is(err, store.ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey from Get, got %v", err)
	}
}

func TestSettingsStore_All(t *testing.T) {
	ss, _ := setupTestDB(t)

	all, err := ss.All(context.Background())
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	for _, key := range store.Keys() {
		if _, ok := all[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if all[store.KeyFollowSymlinks] != "false" {
		t.Errorf("expected follow_symlinks 'false', got %q", all[store.KeyFollowSymlinks])
	}
}

func TestHistoryStore_RecordAndList(t *testing.T) {
	_, hs := setupTestDB(t)
	ctx := context.Background()

	first := db.Transfer{Direction: store.DirectionSend, Peer: "bravo", Path: "/tmp/notes.txt", Size: 4096, Status: store.StatusCompleted, CreatedAt: 100}
	second := db.Transfer{Direction: store.DirectionReceive, Peer: "alpha", Path: "photo.png", Size: 10, Status: store.StatusFailed, CreatedAt: 200}

	if err := hs.Record(ctx, first); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := hs.Record(ctx, second); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	list, err := hs.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(list))
	}
	if list[0].Peer != "alpha" || list[1].Peer != "bravo" {
		t.Errorf("expected newest first, got %q then %q", list[0].Peer, list[1].Peer)
	}
	if list[0].ID == "" || list[0].ID == list[1].ID {
		t.Errorf("expected distinct generated ids, got %q and %q", list[0].ID, list[1].ID)
	}
	if list[1].Size != 4096 {
		t.Errorf("expected size 4096, got %d", list[1].Size)
	}
}

func TestHistoryStore_ListLimit(t *testing.T) {
	_, hs := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = hs.Record(ctx, db.Transfer{Direction: store.DirectionSend, Status: store.StatusCompleted})
	}

	list, err := hs.List(ctx, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("expected 3 transfers, got %d", len(list))
	}
}
