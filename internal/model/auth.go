package model

type SignupInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthOutput struct {
	UserID      int64
	AccessToken string
}
