package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountUser is the owner of zero or more accounts. Users are created
// outside this service (see cmd/seed); the core only ever reads them.
type AccountUser struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
