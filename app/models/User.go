package models

type User struct {
	Id       string
	Email    string
	Password string
	IsPro    bool
}

type UserDto struct {
	Email string `json:"email"`
	Pass  string `json:"pass"`
}
