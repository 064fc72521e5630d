package session

// RoleType partitions the platform's users. Each role maps to one route
// partition and one landing page (see the access package).
type RoleType string

const (
	RoleUser    RoleType = "user"    // Guests searching and booking hotels
	RolePartner RoleType = "partner" // Hotel owners managing their property
	RoleAdmin   RoleType = "admin"   // Back-office staff
)

// AccountStatus is the account lifecycle state reported by the identity
// endpoint.
type AccountStatus string

const (
	StatusActive  AccountStatus = "active"
	StatusPending AccountStatus = "pending"
	StatusBanned  AccountStatus = "banned"
)

// User is the identity the platform reports for the current session. It is
// never persisted; it is re-fetched on every boot.
type User struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	DisplayName   string        `json:"displayName"`
	Role          RoleType      `json:"role"`
	EmailVerified bool          `json:"emailVerified"`
	Status        AccountStatus `json:"status"`
}

// IsAdmin reports whether the user belongs to the admin partition.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsPartner reports whether the user belongs to the partner partition.
func (u *User) IsPartner() bool {
	return u != nil && u.Role == RolePartner
}
