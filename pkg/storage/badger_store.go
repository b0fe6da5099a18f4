package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"kotoba-press/pkg/log"
	"kotoba-press/pkg/models"
	"kotoba-press/pkg/utils"
)

const (
	postKeyPrefix = "post:"    // Prefix for content-file keys in DB
	buildDBDir    = "build_db" // Subdirectory name within stateDir for Badger DB files
)

// BadgerStore implements the BuildStore interface using BadgerDB
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	keyCount atomic.Int64 // Cached key count for O(1) GetPostCount
}

// NewBadgerStore initializes and returns a new BadgerStore. With fresh=true
// any existing build state is discarded first, forcing a full rebuild.
func NewBadgerStore(stateDir string, fresh bool, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{
		log: logger,
	}

	dbPath := filepath.Join(stateDir, buildDBDir)

	if fresh {
		logger.Warnf("Fresh build requested. REMOVING existing build state: %s", dbPath)
		if err := os.RemoveAll(dbPath); err != nil {
			// Log and continue; Badger may still recover or create new files
			logger.Errorf("Failed to remove existing build state %s: %v", dbPath, err)
		}
	}

	logger.Infof("Initializing build state database at: %s (fresh: %v)", dbPath, fresh)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	badgerLogger := log.NewBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1) // Only the latest build state matters

	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	if !fresh {
		count, err := store.countKeys()
		if err != nil {
			logger.Warnf("Failed to count existing keys: %v", err)
		} else {
			store.keyCount.Store(int64(count))
		}
	}

	logger.Info("Build state database initialized.")
	return store, nil
}

// countKeys performs a one-time full key scan (used only during initialization).
func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent MVCC transactions on overlapping keys can return badger.ErrConflict;
// these resolve in microseconds, so a tight retry loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// CheckPostStatus implements the BuildStore interface
func (s *BadgerStore) CheckPostStatus(sourcePath string) (models.PostStatus, *models.PostDBEntry, error) {
	status := models.PostStatusNotFound
	var entry *models.PostDBEntry
	key := []byte(postKeyPrefix + sourcePath)

	errView := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			status = models.PostStatusNotFound
			return nil // Not found is not an error for this function's purpose
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting post key '%s': %w", utils.ErrDatabase, string(key), errGet)
		}

		return item.Value(func(val []byte) error {
			var decodedEntry models.PostDBEntry
			if errJson := json.Unmarshal(val, &decodedEntry); errJson != nil {
				s.log.Warnf("Failed to unmarshal PostDBEntry for key '%s': %v. Treating as not found.", string(key), errJson)
				status = models.PostStatusNotFound
				return nil
			}

			entry = &decodedEntry
			status = models.PostStatus(decodedEntry.Status)
			return nil
		})
	})

	if errView != nil {
		s.log.Errorf("DB View error in CheckPostStatus for key '%s': %v", string(key), errView)
		return models.PostStatusDBError, nil, errView
	}

	return status, entry, nil
}

// UpdatePostStatus implements the BuildStore interface
func (s *BadgerStore) UpdatePostStatus(sourcePath string, entry *models.PostDBEntry) error {
	if s.db == nil {
		return errors.New("build state DB not initialized")
	}
	key := []byte(postKeyPrefix + sourcePath)

	entryBytes, errJson := json.Marshal(entry)
	if errJson != nil {
		wrappedErr := fmt.Errorf("%w: failed to marshal PostDBEntry for key '%s': %w", utils.ErrParsing, string(key), errJson)
		s.log.Error(wrappedErr)
		return wrappedErr
	}

	isNew := false
	err := s.dbUpdate(func(txn *badger.Txn) error {
		_, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			isNew = true
		}
		e := badger.NewEntry(key, entryBytes)
		return txn.SetEntry(e)
	})

	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in UpdatePostStatus: %v", err)
		return fmt.Errorf("%w: failed setting post status for key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	if isNew {
		s.keyCount.Add(1)
	}

	s.log.Debugf("Updated post status for key '%s' to '%s'", string(key), entry.Status)
	return nil
}

// GetPostCount implements the BuildStore interface
func (s *BadgerStore) GetPostCount() (int, error) {
	return int(s.keyCount.Load()), nil
}

// RunGC runs periodic value log garbage collection until ctx is cancelled.
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Debug("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				continue
			}

			var err error
			// Loop GC until it returns ErrNoRewrite or another error
			for {
				err = s.db.RunValueLogGC(0.5)
				if err != nil {
					break
				}
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB GC goroutine: %v", ctx.Err())
			return
		}
	}
}

// Close cleanly closes the database connection
func (s *BadgerStore) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		s.log.Debug("Closing build state DB...")
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing build state DB: %v", err)
			return err
		}
		return nil
	}
	return nil
}
