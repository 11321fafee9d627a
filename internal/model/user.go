package model

// Role gates access to the admin area.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User mirrors a user document in the data service. Password holds a bcrypt
// hash, never the plaintext.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// FullName is the display name stored in the session record.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
