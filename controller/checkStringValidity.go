package controller

import "regexp"

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z][\w.-]{2,31}$`)
	passwordPattern = regexp.MustCompile(`^[\w.!@#$%^&*-]{4,64}$`)
)

func CheckPassword(password string) bool {
	return passwordPattern.MatchString(password)
}

func CheckUsername(username string) bool {
	return usernamePattern.MatchString(username)
}
