package model

// Role is the coarse permission attached to an authenticated caller.
type Role string

const (
	RoleUser      Role = "USER"
	RoleOrganizer Role = "ORGANIZER"
)

// Identity is supplied by the upstream identity provider for every call.
type Identity struct {
	UserID string
	Role   Role
	Email  string
}
