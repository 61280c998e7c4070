package bolt

import (
	"context"
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/todo/domain"
	boltInfra "github.com/fastygo/todo/internal/infrastructure/bolt"
	"github.com/fastygo/todo/repository"
)

type userRecord struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"hashed_password"`
	CreatedAt      time.Time `json:"created_at"`
}

type userRepository struct {
	db *bolt.DB
}

// NewUserRepository returns a BoltDB-backed UserRepository.
func NewUserRepository(db *bolt.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create checks the email index and inserts inside one write transaction.
// Bolt serializes writers, so a duplicate can never slip in between.
func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	if user == nil || user.Email == "" || user.PasswordHash == "" {
		return domain.ErrInvalidPayload
	}

	var record userRecord
	err := r.db.Update(func(tx *bolt.Tx) error {
		byEmail := tx.Bucket(boltInfra.BucketUsersByEmail)
		if byEmail.Get([]byte(user.Email)) != nil {
			return domain.ErrEmailConflict
		}

		users := tx.Bucket(boltInfra.BucketUsers)
		seq, err := users.NextSequence()
		if err != nil {
			return err
		}

		record = userRecord{
			ID:             int64(seq),
			Email:          user.Email,
			HashedPassword: user.PasswordHash,
			CreatedAt:      time.Now().UTC(),
		}
		payload, err := json.Marshal(record)
		if err != nil {
			return err
		}

		key := itob(seq)
		if err := users.Put(key, payload); err != nil {
			return err
		}
		return byEmail.Put([]byte(user.Email), key)
	})
	if err != nil {
		return storageError(err)
	}

	user.ID = record.ID
	user.CreatedAt = record.CreatedAt
	return nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := r.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(boltInfra.BucketUsersByEmail).Get([]byte(email))
		if key == nil {
			return domain.ErrUserNotFound
		}
		var err error
		user, err = readUser(tx, key)
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}
	return user, nil
}

func readUser(tx *bolt.Tx, key []byte) (*domain.User, error) {
	payload := tx.Bucket(boltInfra.BucketUsers).Get(key)
	if payload == nil {
		return nil, domain.ErrUserNotFound
	}
	var record userRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}
	return &domain.User{
		ID:           record.ID,
		Email:        record.Email,
		PasswordHash: record.HashedPassword,
		CreatedAt:    record.CreatedAt,
	}, nil
}
