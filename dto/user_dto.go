package dto

// AdminCreateUserDTO is RegisterDTO with an explicit role.
type AdminCreateUserDTO struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72,strongpassword"`
	Phone    string `json:"phone"    binding:"required,max=32"`
	Address  string `json:"address"  binding:"required,max=256"`
	Role     string `json:"role"     binding:"required,oneof=user admin"`
}
