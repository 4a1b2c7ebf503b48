package handler

import "github.com/influencehub/marketplace/internal/core/domain"

// messageResponse is the envelope for successful calls without a resource
// and for every 4xx/5xx response.
type messageResponse struct {
	Message string `json:"message"`
}

type registerRequest struct {
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=6"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	BrandName string `json:"brandName"`
	Industry  string `json:"industry"`
	Website   string `json:"website"   validate:"omitempty,url"`
	Username  string `json:"username"`
	Category  string `json:"category"`
	Followers int64  `json:"followers" validate:"gte=0"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user"`
}
