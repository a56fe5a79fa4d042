package models

import (
	"time"
)

// UserRole distinguishes earners from administrators
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// UserStatus represents whether an account may hold a session
type UserStatus string

const (
	UserStatusActive UserStatus = "ACTIVE"
	UserStatusBanned UserStatus = "BANNED"
)

// MasterAdminID is the id of the single master administrator account
const MasterAdminID = "admin_master"

// User represents an earner (or the master admin) and their wallet state
type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Points         int        `json:"points"`
	ReferralCode   string     `json:"referralCode"`
	ReferralsCount int        `json:"referralsCount"`
	Role           UserRole   `json:"role"`
	Status         UserStatus `json:"status"`
	JoinedAt       time.Time  `json:"joinedAt"`
	StreakCount    int        `json:"streakCount"`
	LastActiveDate *time.Time `json:"lastActiveDate,omitempty"` // Last point-earning action
	ReferredBy     string     `json:"referredBy,omitempty"`
}

// IsBanned reports whether the account is suspended
func (u *User) IsBanned() bool {
	return u.Status == UserStatusBanned
}

// IsAdmin reports whether the account carries the ADMIN role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
