package bolt

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Bucket names used by the embedded store.
var (
	BucketUsers        = []byte("users")
	BucketUsersByEmail = []byte("users_by_email")
	BucketTasks        = []byte("tasks")
	BucketTasksByID    = []byte("tasks_by_id")
)

// Open initializes the BoltDB file and ensures every bucket exists.
func Open(path string, logger *zap.Logger) (*bolt.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{BucketUsers, BucketUsersByEmail, BucketTasks, BucketTasksByID} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("opened bolt store", zap.String("path", path))
	return db, nil
}

// Ping runs an empty read transaction, which fails once the database is closed.
func Ping(_ context.Context, db *bolt.DB) error {
	if db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(BucketUsers) == nil {
			return bolt.ErrBucketNotFound
		}
		return nil
	})
}
