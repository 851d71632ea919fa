package domain

import "time"

// UserEventType names a mutation recorded in the audit trail.
type UserEventType string

const (
	UserCreated          UserEventType = "user.created"
	UserUpdated          UserEventType = "user.updated"
	UserDeleted          UserEventType = "user.deleted"
	UserPasswordMigrated UserEventType = "user.password_migrated"
)

// Event sources.
const (
	SourceAdmin     = "admin"
	SourceRegister  = "register"
	SourceSeed      = "seed"
	SourceMigration = "migration"
)

// UserEvent is an audit record of a single user mutation. It never carries
// password material, only whether the stored hash changed.
type UserEvent struct {
	Type            UserEventType
	UserID          uint
	Email           string
	Roles           []string
	Source          string
	PasswordChanged bool
	RolesReplaced   bool
	OccurredAt      time.Time
}
