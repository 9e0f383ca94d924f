package platform

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied means the chat platform rejected the call outright.
	// Fatal for initial provisioning, swallowed-and-retried for sweeps.
	ErrPermissionDenied = errors.New("platform permission denied")

	// ErrNotFound means the guild, channel or role no longer resolves.
	ErrNotFound = errors.New("platform resource not found")
)

// PrincipalKind selects who an access rule applies to.
type PrincipalKind int

const (
	PrincipalEveryone PrincipalKind = iota // the guild default role
	PrincipalBot                           // the service's own identity
	PrincipalRole                          // a specific role by id
)

type Principal struct {
	Kind   PrincipalKind
	RoleID int64 // only meaningful for PrincipalRole
}

func Everyone() Principal     { return Principal{Kind: PrincipalEveryone} }
func Bot() Principal          { return Principal{Kind: PrincipalBot} }
func Role(id int64) Principal { return Principal{Kind: PrincipalRole, RoleID: id} }

// Overwrite is one row of an access-policy table: whether the principal may
// read and send in a channel. Applying the same table twice is a no-op on
// the platform side, which is what makes sweep retries safe.
type Overwrite struct {
	Principal Principal
	Read      bool
	Send      bool
}

// Provisioner is the narrow contract to the resource-provisioning layer.
// Implementations return opaque numeric ids for created resources.
type Provisioner interface {
	CreateRole(ctx context.Context, guildID int64, name string) (int64, error)
	CreateCategory(ctx context.Context, guildID int64, name string, overwrites []Overwrite) (int64, error)
	CreateTextChannel(ctx context.Context, guildID, categoryID int64, name string, overwrites []Overwrite) (int64, error)
	EditChannelAccess(ctx context.Context, guildID, channelID int64, overwrites []Overwrite) error
	DeleteRole(ctx context.Context, guildID, roleID int64) error
	DeleteChannel(ctx context.Context, channelID int64) error
	GrantRole(ctx context.Context, guildID, userID, roleID int64) error

	// Announce posts a best-effort activity line to a channel.
	Announce(ctx context.Context, channelID int64, message string) error
}

// Confirmer models a yes/no gate presented to one user. A timeout and an
// explicit cancel are indistinguishable to the caller: both return false.
type Confirmer interface {
	Confirm(ctx context.Context, userID int64, prompt string) (bool, error)
}
