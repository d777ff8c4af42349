package dataset

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Store owns the canonical dataset snapshot for the process lifetime.
// Readers get a reference to the current immutable snapshot; Reload
// replaces it wholesale and notifies subscribers (the response cache
// flushes itself through this hook).
type Store struct {
	mu                 sync.RWMutex
	current            *Dataset
	path               string
	maxInvalidFraction float64
	logger             *logrus.Logger
	onReload           []func(*Dataset)
}

// NewStore loads the dataset at path and returns a store holding it.
func NewStore(path string, maxInvalidFraction float64, logger *logrus.Logger) (*Store, error) {
	ds, err := Load(path, maxInvalidFraction, logger)
	if err != nil {
		return nil, err
	}
	return &Store{
		current:            ds,
		path:               path,
		maxInvalidFraction: maxInvalidFraction,
		logger:             logger,
	}, nil
}

// Current returns the active snapshot. The returned dataset must be
// treated as read-only.
func (s *Store) Current() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-reads the dataset from disk. The previous snapshot stays
// active when the new load fails, so a bad file on disk never takes the
// service down. Subscribers run only after a successful swap.
func (s *Store) Reload() (*Dataset, error) {
	ds, err := Load(s.path, s.maxInvalidFraction, s.logger)
	if err != nil {
		s.logger.WithError(err).Error("Dataset reload failed, keeping previous snapshot")
		return nil, err
	}

	s.mu.Lock()
	previous := s.current
	s.current = ds
	hooks := append([]func(*Dataset){}, s.onReload...)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(ds)
	}

	s.logger.WithFields(logrus.Fields{
		"records":             len(ds.Records),
		"previous_records":    len(previous.Records),
		"fingerprint_changed": previous.Fingerprint != ds.Fingerprint,
	}).Info("Dataset snapshot replaced")
	return ds, nil
}

// OnReload registers a hook invoked after every successful reload.
func (s *Store) OnReload(hook func(*Dataset)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, hook)
}
