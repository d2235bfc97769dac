package domain

// User is an account record keyed by username.
type User struct {
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	HashedPassword string `json:"hashed_password"`
	Disabled       bool   `json:"disabled"`
	IsManager      bool   `json:"is_manager"`
}

// Profile is the externally visible view of a user, without credentials.
type Profile struct {
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	Disabled  bool   `json:"disabled"`
	IsManager bool   `json:"is_manager"`
}

// Profile strips the credential hash for API responses.
func (u User) Profile() Profile {
	return Profile{
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Disabled:  u.Disabled,
		IsManager: u.IsManager,
	}
}

// UserUpdate is a partial patch; nil fields are left untouched.
type UserUpdate struct {
	Email          *string `json:"email"`
	FullName       *string `json:"full_name"`
	HashedPassword *string `json:"hashed_password"`
	Disabled       *bool   `json:"disabled"`
	IsManager      *bool   `json:"is_manager"`
}
