package dto

import "strings"

// Passwords are capped at 72 bytes, the most bcrypt will hash.
type RegisterDTO struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Phone    string `json:"phone"    binding:"required,max=32"`
	Address  string `json:"address"  binding:"required,max=256"`
	Role     string `json:"role"`
}

// Normalize trims the identifying fields before they are stored.
func (d *RegisterDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
}

type LoginDTO struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordDTO is bound leniently: a malformed body still gets the
// generic response.
type ForgotPasswordDTO struct {
	Email string `json:"email"`
}

type ResetPasswordDTO struct {
	Token       string `json:"token"       binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72,strongpassword"`
}

type ContactDTO struct {
	Name    string `json:"name"    binding:"required,max=128"`
	Email   string `json:"email"   binding:"required,email"`
	Message string `json:"message" binding:"required,max=5000"`
}
