package model

import "github.com/golang-jwt/jwt/v5"

// Role is the account role carried by a token
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleResearcher Role = "researcher"
)

// Claims are JWT claims for authenticated accounts
type Claims struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for admin and researcher login
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token     string `json:"token"`
	AccountID string `json:"accountId"`
	Role      Role   `json:"role"`
	User      *User  `json:"user,omitempty"`
}

// RegisterRequest is the researcher sign-up body
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Organization string `json:"organization"`
	ResearchArea string `json:"researchArea"`
	Purpose      string `json:"purpose"`
}

// VerifyEmailRequest confirms a researcher's email address
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
