// Package badger provides the durable Run store of spec.md §4.7, the
// backing store behind the Status endpoint and the retention sweep.
package badger

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/smaltravel/findajob/internal/common"
)

// DB manages the Badger database connection backing Run storage.
type DB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config common.BadgerConfig
}

// NewDB opens (or creates) the Badger database at config.Path.
func NewDB(logger arbor.ILogger, config common.BadgerConfig) (*DB, error) {
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Debug().Str("path", config.Path).Msg("deleting existing database (reset_on_startup=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("failed to delete database directory")
			}
		}
	}

	if err := os.MkdirAll(config.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("opening badger database connection")

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("badger database initialized")

	return &DB{store: store, logger: logger, config: config}, nil
}

// Store returns the underlying badgerhold store.
func (b *DB) Store() *badgerhold.Store {
	return b.store
}

// Close closes the database connection.
func (b *DB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
