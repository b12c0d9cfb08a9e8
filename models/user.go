package models

// User represents an account that can sign in to the catalog
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never serialize the credential
}

// IsAdmin reports whether this user may provision new accounts.
func (u *User) IsAdmin() bool {
	return u.Username == "admin"
}
