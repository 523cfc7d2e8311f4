// Package app is the application layer between the CLI and the capsule core.
// It constructs all dependencies from config and exposes the high-level
// operations the commands call.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"timecapsule/internal/capsule"
	"timecapsule/internal/config"
	"timecapsule/internal/store"
)

// App wires the capsule service and store together for one CLI invocation.
type App struct {
	cfg     *config.Config
	store   capsule.Store
	service *capsule.Service
	clock   capsule.Clock
	logger  *slog.Logger
	logFile *os.File
}

// New creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Lock", "Unlock").
// The caller must call Close when done.
func New(cfg *config.Config, operation string) (*App, error) {
	logger, logFile, err := newLogger(cfg.LogDir, operation)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	st, err := store.NewStoreFromConfig(cfg.Storage, capsule.UUIDGenerator{}, &slogAdapter{l: logger})
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating store: %w", err)
	}

	clock := capsule.RealClock{}
	return &App{
		cfg:     cfg,
		store:   st,
		service: capsule.NewService(clock),
		clock:   clock,
		logger:  logger,
		logFile: logFile,
	}, nil
}

// LockResult describes a freshly stored capsule.
type LockResult struct {
	ID         string
	UnlockDate time.Time
	Remaining  time.Duration
}

// Lock seals content under a password until unlockDate and stores the
// resulting capsule. When output is non-empty the record is written to that
// explicit path instead of the storage root, and the file stem becomes the
// handle for later reference.
func (a *App) Lock(content, password string, unlockDate time.Time, label, output string) (*LockResult, error) {
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}
	now := a.clock.Now()
	if !unlockDate.After(now) {
		return nil, fmt.Errorf("unlock date must be in the future")
	}

	env, err := a.service.Seal(content, password, unlockDate, label)
	if err != nil {
		return nil, fmt.Errorf("sealing capsule: %w", err)
	}

	var id string
	if output != "" {
		if err := a.store.SaveTo(env, output); err != nil {
			return nil, fmt.Errorf("storing capsule at %s: %w", output, err)
		}
		id = strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	} else {
		minted, err := a.store.Save(env)
		if err != nil {
			return nil, fmt.Errorf("storing capsule: %w", err)
		}
		id = minted.String()
	}

	a.logger.Info("capsule locked", "id", id, "unlock_date", env.UnlockDate)
	return &LockResult{
		ID:         id,
		UnlockDate: env.UnlockDate,
		Remaining:  env.Remaining(now),
	}, nil
}

// LoadCapsule fetches a capsule by identifier or explicit file location.
// Exactly one of id and location must be given.
func (a *App) LoadCapsule(id, location string) (*capsule.Envelope, error) {
	switch {
	case location != "":
		return a.store.LoadFrom(location)
	case id != "":
		parsed, err := capsule.ParseID(id)
		if err != nil {
			return nil, fmt.Errorf("parsing identifier: %w", err)
		}
		return a.store.Load(parsed)
	default:
		return nil, fmt.Errorf("must specify either an identifier or a file")
	}
}

// Open recovers the plaintext from a capsule with the given password.
func (a *App) Open(env *capsule.Envelope, password string) (string, error) {
	content, err := a.service.Open(env, password)
	if err != nil {
		return "", err
	}
	a.logger.Info("capsule opened", "unlock_date", env.UnlockDate)
	return content, nil
}

// List returns all stored capsules keyed by identifier.
func (a *App) List() (map[capsule.ID]*capsule.Envelope, error) {
	return a.store.List()
}

// Ready returns only the capsules whose unlock date has passed.
func (a *App) Ready() (map[capsule.ID]*capsule.Envelope, error) {
	all, err := a.store.List()
	if err != nil {
		return nil, err
	}
	now := a.clock.Now()
	ready := make(map[capsule.ID]*capsule.Envelope)
	for id, env := range all {
		if env.Unlockable(now) {
			ready[id] = env
		}
	}
	return ready, nil
}

// Now reports the current time from the app's clock, for status display.
func (a *App) Now() time.Time {
	return a.clock.Now()
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var firstErr error
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			firstErr = fmt.Errorf("closing store: %w", err)
		}
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}
