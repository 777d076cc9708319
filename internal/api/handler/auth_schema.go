package handler

import "time"

// --- Request types ---

type registerRequest struct {
	Email       string `json:"email"       validate:"required,email,max=254"`
	Password    string `json:"password"    validate:"required,min=8,max=72"`
	FirstName   string `json:"firstName"   validate:"required,max=50"`
	LastName    string `json:"lastName"    validate:"required,max=50"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
	Role        string `json:"role"        validate:"omitempty,oneof=user admin"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract does not follow domain
// changes.

type identityResponse struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	PhoneNumber       string     `json:"phoneNumber,omitempty"`
	Role              string     `json:"role"`
	IsActive          bool       `json:"isActive"`
	Locked            bool       `json:"locked"`
	PasswordChangedAt *time.Time `json:"passwordChangedAt,omitempty"`
	LastLogin         *time.Time `json:"lastLogin,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type identityData struct {
	Identity identityResponse `json:"identity"`
}

type authResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	Data    identityData `json:"data"`
}

type identityEnvelope struct {
	Success bool         `json:"success"`
	Data    identityData `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// errorResponse mirrors the envelope rendered by the HTTP error handler; it
// exists for the API docs.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}
