package bolt

import (
	"encoding/binary"
	"errors"

	"github.com/fastygo/todo/domain"
)

const maxPageSize = 1000

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// taskKey orders tasks by owner first and creation sequence second, so a
// prefix scan over the owner yields that owner's tasks in creation order.
func taskKey(ownerID int64, seq uint64) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], uint64(ownerID))
	binary.BigEndian.PutUint64(key[8:], seq)
	return key
}

func ownerPrefix(ownerID int64) []byte {
	return itob(uint64(ownerID))
}

func keyOwner(key []byte) int64 {
	if len(key) < 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(key[:8]))
}

func storageError(err error) error {
	if err == nil {
		return nil
	}
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}
	return domain.StorageError(err)
}
