package access

// Role is what the current user is allowed to do. READ_ONLY users can try every
// operation, but their writes land in an ephemeral store and are never persisted.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleReadOnly Role = "READ_ONLY"
)

// CanPersist reports whether writes made under this role reach the real store.
func (r Role) CanPersist() bool {
	return r == RoleAdmin
}
