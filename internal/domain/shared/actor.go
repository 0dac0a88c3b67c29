package shared

// Role defines the caller roles recognized by the engine
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleBranchManager Role = "BRANCH_MANAGER"
	RoleTeller        Role = "TELLER"
)

// ParseRole maps a raw role string to a known Role, returning false for anything else
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleBranchManager, RoleTeller:
		return Role(raw), true
	}
	return "", false
}

// Actor is the authenticated caller identity supplied by the upstream
// auth layer. The engine enforces branch and ownership rules with it
// but never performs authentication itself.
type Actor struct {
	UserID     string `json:"user_id"`
	Role       Role   `json:"role"`
	BranchCode string `json:"branch_code"`
}

// ErrBranchRequired indicates a branch-scoped operation called without
// a resolvable branch code
type ErrBranchRequired struct{}

func (ErrBranchRequired) Error() string {
	return "branch code is required for this operation"
}

// ScopeBranch resolves the branch an operation applies to. Admins may
// address any branch, branch managers default to their own but may
// request another, tellers are always scoped to their own branch.
func (a Actor) ScopeBranch(requested string) string {
	switch a.Role {
	case RoleAdmin:
		return requested
	case RoleBranchManager:
		if requested != "" {
			return requested
		}
		return a.BranchCode
	default:
		return a.BranchCode
	}
}
