package http

import "time"

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Message string `json:"message" example:"Invalid credentials"`
}

// MessageResponse is returned by endpoints that only report success.
type MessageResponse struct {
	Message string `json:"message" example:"Verification code sent"`
}

// AuthUser is the sanitized account representation returned by auth
// endpoints. Password material and reset codes are never serialized.
type AuthUser struct {
	ID        string    `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email     string    `json:"email" example:"user@example.com"`
	FullName  *string   `json:"fullname,omitempty" example:"Ada Obi"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-01T12:00:00Z"`
}

// LoginResponse carries the signed credential and the account it asserts.
type LoginResponse struct {
	Token     string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt time.Time `json:"expires_at" example:"2024-01-01T13:00:00Z"`
	User      AuthUser  `json:"user"`
}

// RegisterRequest carries the signup fields.
type RegisterRequest struct {
	Email    string  `json:"email" example:"user@example.com"`
	FullName *string `json:"fullname,omitempty" example:"Ada Obi"`
	Password string  `json:"password" example:"Passw0rd!"`
}

// LoginRequest carries the login fields.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"Passw0rd!"`
}

// ForgotPasswordRequest starts the reset flow for an email address.
type ForgotPasswordRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

// VerifyCodeRequest checks a delivered reset code.
type VerifyCodeRequest struct {
	Email string `json:"email" example:"user@example.com"`
	Code  string `json:"code" example:"042187"`
}

// ResetPasswordRequest completes the reset flow.
type ResetPasswordRequest struct {
	Email           string `json:"email" example:"user@example.com"`
	Code            string `json:"code" example:"042187"`
	Password        string `json:"password" example:"NewPassw0rd!"`
	ConfirmPassword string `json:"confirmpassword" example:"NewPassw0rd!"`
}

func toAuthUser(id, email string, fullName *string, createdAt time.Time) AuthUser {
	return AuthUser{ID: id, Email: email, FullName: fullName, CreatedAt: createdAt}
}
