package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pagedoor.json")

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	changes := make(chan Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c Config) { changes <- c })
	}()

	// Let the watcher arm before writing.
	time.Sleep(200 * time.Millisecond)

	cfg.Profile.Label = "changed"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save change: %v", err)
	}

	select {
	case got := <-changes:
		if got.Profile.Label != "changed" {
			t.Fatalf("label = %q, want %q", got.Profile.Label, "changed")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reported the change")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Watch returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}

func TestWatchSkipsInvalidIntermediateState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pagedoor.json")

	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	changes := make(chan Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = Watch(ctx, path, func(c Config) { changes <- c }) }()

	time.Sleep(200 * time.Millisecond)

	// Broken JSON must not reach onChange.
	if err := os.WriteFile(path, []byte(`{"editor": {`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		t.Fatalf("watcher reported a broken config: %+v", got)
	case <-time.After(800 * time.Millisecond):
	}

	// A valid write afterwards comes through.
	cfg := Default()
	cfg.Profile.Label = "fixed"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save fixed: %v", err)
	}
	select {
	case got := <-changes:
		if got.Profile.Label != "fixed" {
			t.Fatalf("label = %q, want %q", got.Profile.Label, "fixed")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never recovered after a broken write")
	}
}
