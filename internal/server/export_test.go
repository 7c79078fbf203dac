package server

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
)

// This file is only for test purpose and is only loaded by test framework.

// TokenForSubject returns a bearer token signed the way the identity provider
// would sign it.
func TokenForSubject(ctrl Controller, subject, email string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"name":  "George Abitbol",
		"iat":   time.Now().Unix(),
	})

	signed, err := token.SignedString(ctrl.SigningKey)
	if err != nil {
		panic(err)
	}
	return signed
}
