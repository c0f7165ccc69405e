package model

// Role distinguishes employees from administrators.
type Role string

const (
	RoleEmployee Role = "Employee"
	RoleAdmin    Role = "Admin"
)

// User is the authenticated identity held in the session under key "user".
type User struct {
	Type  Role   `json:"type"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}
