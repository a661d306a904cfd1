package models

import "time"

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User is a read-only projection of the identity provider's user record.
// The service never writes users; Casdoor owns them.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	Role        UserRole `json:"role"`

	CreatedAt time.Time `json:"created_at"`
}
