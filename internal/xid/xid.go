package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a collision-free identifier such as "txn-3f1c...". An empty prefix
// yields the bare UUID.
func New(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return fmt.Sprintf("%s-%s", prefix, id)
}
