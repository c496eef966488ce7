// Package checkpoint persists trained model state in an embedded bbolt
// database so a later run can start from learned weights. Values are
// msgpack-encoded and keyed by run ID.
package checkpoint

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/model"
)

var bucketModels = []byte("models")

// Checkpoint is a saved model with the replay position it was taken at.
type Checkpoint struct {
	RunID           string         `msgpack:"run_id"`
	SavedAt         time.Time      `msgpack:"saved_at"`
	QueryCount      int            `msgpack:"query_count"`
	PackagesTrained int            `msgpack:"packages_trained"`
	Model           model.Snapshot `msgpack:"model"`
}

type Store struct {
	db     *bolt.DB
	logger *slog.Logger
}

// Open opens or creates the checkpoint database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketModels)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating checkpoint bucket: %w", err)
	}
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "checkpoint", "path", path),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes cp under its run ID, replacing any earlier checkpoint.
func (s *Store) Save(cp Checkpoint) error {
	if cp.SavedAt.IsZero() {
		cp.SavedAt = time.Now().UTC()
	}
	data, err := msgpack.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketModels).Put([]byte(cp.RunID), data)
	}); err != nil {
		return fmt.Errorf("saving checkpoint %s: %w", cp.RunID, err)
	}
	s.logger.Info("checkpoint saved",
		"run_id", cp.RunID,
		"query_count", cp.QueryCount,
		"instances", cp.Model.Instances,
	)
	return nil
}

// Load returns the checkpoint for runID, or nil if there is none.
func (s *Store) Load(runID string) (*Checkpoint, error) {
	var data []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketModels).Get([]byte(runID)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("loading checkpoint %s: %w", runID, err)
	}
	if data == nil {
		return nil, nil
	}
	var cp Checkpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", runID, err)
	}
	return &cp, nil
}

// List returns the stored run IDs in key order.
func (s *Store) List() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketModels).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

func (s *Store) Delete(runID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketModels).Delete([]byte(runID))
	})
}

// RestoreInto loads runID's checkpoint into m. It reports false when no
// checkpoint exists.
func (s *Store) RestoreInto(runID string, m *model.Model) (bool, error) {
	cp, err := s.Load(runID)
	if err != nil || cp == nil {
		return false, err
	}
	if err := m.Restore(cp.Model); err != nil {
		return false, err
	}
	s.logger.Info("model restored", "run_id", runID, "instances", cp.Model.Instances, "saved_at", cp.SavedAt)
	return true, nil
}
