package client

import (
	"errors"
	"fmt"
	"strconv"

	badger "github.com/dgraph-io/badger/v4"
)

// Cache keys for last-known profile and stats values, read at cold start
// before any network round-trip completes.
const (
	KeyUsername         = "Username"
	KeyLevel            = "Level"
	KeyXPPoints         = "XPPoints"
	KeyLessonsCompleted = "LessonsCompleted"
	KeyStreak           = "Streak"
	KeyExperimentsRun   = "ExperimentsRun"
	KeyQPUMinutes       = "QPUMinutes"
	KeyTotalStudyTime   = "TotalStudyTime"
)

// Store is a flat key → scalar cache backed by badger. Missing keys read as
// zero values so a cold start degrades to documented defaults instead of
// failing.
type Store struct {
	db *badger.DB
}

// OpenStore opens (or creates) the cache at dir. An empty dir opens an
// in-memory store, which tests use.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetString writes one scalar.
func (s *Store) SetString(key, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// GetString reads one scalar; missing keys yield "".
func (s *Store) GetString(key string) (string, error) {
	var out string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	return out, err
}

// SetInt writes one integer scalar.
func (s *Store) SetInt(key string, value int) error {
	return s.SetString(key, strconv.Itoa(value))
}

// GetInt reads one integer scalar; missing or unparseable keys yield 0.
func (s *Store) GetInt(key string) (int, error) {
	raw, err := s.GetString(key)
	if err != nil || raw == "" {
		return 0, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return value, nil
}

// SetFloat writes one float scalar.
func (s *Store) SetFloat(key string, value float64) error {
	return s.SetString(key, strconv.FormatFloat(value, 'g', -1, 64))
}

// GetFloat reads one float scalar; missing or unparseable keys yield 0.
func (s *Store) GetFloat(key string) (float64, error) {
	raw, err := s.GetString(key)
	if err != nil || raw == "" {
		return 0, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, nil
	}
	return value, nil
}
