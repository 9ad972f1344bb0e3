package identity

import (
	"strings"
	"time"
)

// Role determines which capability set a user holds. Roles are closed:
// there is no role management at runtime.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCustomer:
		return RoleCustomer, true
	case RoleStaff:
		return RoleStaff, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// User is a human operating against the ledger. Users are never deleted;
// a rejected registration stays on record with Active=false.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedByID  string    `json:"created_by_id,omitempty"`
}

// ApprovalStatus is the customer registration lifecycle state.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// CustomerProfile is 1:1 with a customer-role User.
type CustomerProfile struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Phone     string         `json:"phone"`
	Address   string         `json:"address"`
	Status    ApprovalStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// Session is one login/logout pair. The session log is append-only; closing
// a session only fills in its logout fields.
type Session struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	LoginTime       time.Time  `json:"login_time"`
	LogoutTime      *time.Time `json:"logout_time,omitempty"`
	DurationSeconds float64    `json:"duration_seconds,omitempty"`
}

// SessionSummary is a session joined with its user's name for reporting.
type SessionSummary struct {
	Session
	UserName string `json:"user_name"`
}
