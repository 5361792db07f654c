package models

import (
	"time"
)

// 角色
const (
	RoleUser     = "user"
	RoleEmployee = "employee" // 可审核内容
	RoleAdmin    = "admin"
	RolePlayer   = "player" // 认证球员
)

type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email          string     `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password       string     `gorm:"size:128" json:"-"` // Hash
	ProfilePicture string     `gorm:"size:255" json:"profile_picture"`
	Role           string     `gorm:"size:20;default:'user';not null" json:"role"`
	OAuthProvider  string     `gorm:"column:oauth_provider;size:20" json:"-"`
	OAuthID        string     `gorm:"column:oauth_id;size:255;index" json:"-"`
	LastLogin      *time.Time `json:"last_login"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsModerator employee 或 admin 都有审核权限
func (u *User) IsModerator() bool {
	return u != nil && (u.Role == RoleEmployee || u.Role == RoleAdmin)
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleEmployee, RoleAdmin, RolePlayer:
		return true
	}
	return false
}
