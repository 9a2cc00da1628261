// Package app wires together configuration, the filesystem and the local
// store into a single Deps struct that commands receive at runtime.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/derickschaefer/timetools/internal/config"
	"github.com/derickschaefer/timetools/internal/store"
)

// Deps holds all runtime dependencies injected into command Run functions.
// The store is opened lazily by RequireStore so commands that never touch
// it never take the bbolt file lock.
type Deps struct {
	Config *config.Config
	FS     afero.Fs
	Store  *store.Store
}

// New builds a Deps from resolved config.
func New(cfg *config.Config, fs afero.Fs) *Deps {
	return &Deps{Config: cfg, FS: fs}
}

// RequireStore opens the store at Config.DBPath if it is not open yet.
func (d *Deps) RequireStore() error {
	if d.Store != nil {
		return nil
	}
	if d.Config.DBPath == "" {
		return fmt.Errorf("no database path configured (set db_path or %s)", config.EnvDBPath)
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		return err
	}
	d.Store = s
	return nil
}

// Close releases the store if it was opened.
func (d *Deps) Close() error {
	if d.Store == nil {
		return nil
	}
	err := d.Store.Close()
	d.Store = nil
	return err
}

// SetupLogging installs the default slog logger on w. The level is Warn,
// Info with verbose, Debug with debug.
func SetupLogging(w io.Writer, verbose, debug bool) {
	level := slog.LevelWarn
	switch {
	case debug:
		level = slog.LevelDebug
	case verbose:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// LogEnabled reports whether the default logger emits at level.
func LogEnabled(level slog.Level) bool {
	return slog.Default().Enabled(context.Background(), level)
}
