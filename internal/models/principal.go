package models

import (
	"time"

	"github.com/google/uuid"
)

// Principal is a user known to the dashboard. The ID matches the subject of
// the access tokens issued by the identity provider.
type Principal struct {
	ID       uuid.UUID
	Email    string
	FullName string

	CreatedAt time.Time
}
