package dto

// RegisterDTO is the incoming registration form.
type RegisterDTO struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Agree     bool   `json:"agree" validate:"eq=true"`
}

// LoginDTO is the incoming login form.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Remember bool   `json:"remember"`
}

// SessionDTO echoes the established session record.
type SessionDTO struct {
	UserID   int    `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// RegisteredDTO is returned after a successful registration.
type RegisteredDTO struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}
