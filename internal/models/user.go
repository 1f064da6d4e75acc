package models

import (
	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"index;not null;default:student" json:"role"`
}

// ValidRole reports whether role is one of the roles a user may hold.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStudent
}
