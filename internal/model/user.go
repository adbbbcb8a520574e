package model

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
}

// UserUpdate carries a partial profile update; nil fields are left as-is.
type UserUpdate struct {
	PasswordHash *string
	FirstName    *string
	LastName     *string
}
