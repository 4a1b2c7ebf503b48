package domain

// Account is the backend's stored form of a User.
type Account struct {
	User
	PasswordHash string `json:"-"`
}
