package domain

import (
	"regexp"
	"strings"

	"github.com/dmehra2102/planner/internal/query"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type User struct {
	ID           string `json:"id" bson:"id"`
	Name         string `json:"name" bson:"name"`
	Email        string `json:"email" bson:"email"`
	PasswordHash string `json:"password_hash" bson:"password_hash"`
}

var UserSchema = query.NewSchema(
	query.String("id", func(u *User) string { return u.ID }, func(u *User, v string) { u.ID = v }),
	query.String("name", func(u *User) string { return u.Name }, func(u *User, v string) { u.Name = v }),
	query.String("email", func(u *User) string { return u.Email }, func(u *User, v string) { u.Email = v }),
	query.String("password_hash", func(u *User) string { return u.PasswordHash }, func(u *User, v string) { u.PasswordHash = v }),
)

// NormalizeEmail trims and lower-cases an address before it is stored or
// looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail accepts the local@domain.tld shape.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
