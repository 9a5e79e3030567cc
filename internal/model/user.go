package model

import "time"

// User is a researcher account; admins authenticate from configuration instead
type User struct {
	ID           string `json:"_id" bson:"_id,omitempty"`
	Email        string `json:"email" bson:"email"`
	PasswordHash string `json:"-" bson:"password"`
	FirstName    string `json:"firstName" bson:"firstName"`
	LastName     string `json:"lastName" bson:"lastName"`
	Organization string `json:"organization" bson:"organization"`
	ResearchArea string `json:"researchArea" bson:"researchArea"`
	Purpose      string `json:"purpose" bson:"purpose"`

	IsEmailVerified        bool       `json:"isEmailVerified" bson:"isEmailVerified"`
	EmailVerificationCode  string     `json:"-" bson:"emailVerificationCode,omitempty"`
	EmailVerificationUntil *time.Time `json:"-" bson:"emailVerificationExpires,omitempty"`

	IsApproved bool       `json:"isApproved" bson:"isApproved"`
	IsActive   bool       `json:"isActive" bson:"isActive"`
	ApprovedBy string     `json:"approvedBy,omitempty" bson:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`

	IsBanned     bool       `json:"isBanned" bson:"isBanned"`
	BanReason    string     `json:"banReason,omitempty" bson:"banReason,omitempty"`
	BanDuration  int        `json:"banDuration,omitempty" bson:"banDuration,omitempty"` // days, 0 = permanent
	BannedAt     *time.Time `json:"bannedAt,omitempty" bson:"bannedAt,omitempty"`
	BannedBy     string     `json:"bannedBy,omitempty" bson:"bannedBy,omitempty"`
	BanExpiresAt *time.Time `json:"banExpiresAt,omitempty" bson:"banExpiresAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BanActive reports whether the ban is still in force at now
func (u *User) BanActive(now time.Time) bool {
	if !u.IsBanned {
		return false
	}
	return u.BanExpiresAt == nil || now.Before(*u.BanExpiresAt)
}

// UserStatus filters user listings
type UserStatus string

const (
	UserStatusAll     UserStatus = ""
	UserStatusPending UserStatus = "pending"
	UserStatusActive  UserStatus = "approved"
	UserStatusBanned  UserStatus = "banned"
)

// BanRequest is the admin body for banning a researcher
type BanRequest struct {
	Reason   string `json:"reason"`
	Duration int    `json:"duration"` // days, 0 = permanent
}
