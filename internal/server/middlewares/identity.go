package middlewares

import (
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/mindmirror/mindmirror/internal/database"
	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/pkg/errors"
)

// CurrentUserContextKey is the key to retrieve the current_user from echo.Context.
const CurrentUserContextKey = "current_user"

// Identity returns a middleware authenticating requests against the bearer
// token issued by the external identity provider. It stores current_user into
// echo.Context, provisioning the record on the first request of an unknown
// subject.
func Identity(db database.Client, signingKey []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			authorization := c.Request().Header.Get(echo.HeaderAuthorization)
			token := token(authorization)

			if token == "" {
				return unauthorized(c)
			}

			claims := jwt.MapClaims{}
			_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return signingKey, nil
			})
			if err != nil {
				return unauthorized(c)
			}

			subject, _ := claims["sub"].(string)
			if subject == "" {
				return unauthorized(c)
			}

			user, err := db.FindUserBySubject(subject)
			if err != nil {
				if !db.IsNotFound(err) {
					return errors.Wrap(err, "could not get access to database")
				}

				// First sight of this identity.
				user = &model.User{SubjectID: subject}
				user.Email, _ = claims["email"].(string)
				user.DisplayName, _ = claims["name"].(string)
				if err := db.Save(user); err != nil {
					return errors.Wrap(err, "could not provision user")
				}
			}

			// Store current_user for handlers.
			c.Set(CurrentUserContextKey, user)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"error": echo.Map{
			"tag":     "invalid-auth",
			"message": "Invalid login credentials.",
		},
	})
}

func token(authorization string) string {
	parts := strings.Split(authorization, " ")
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
