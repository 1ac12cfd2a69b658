package middleware

import (
	"net/http"
	"strings"

	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SubjectKey is the gin context key holding the authenticated token subject
const SubjectKey = "subject"

// RequireToken guards mutating requests with an HS256 bearer token.
// Reads pass through; the guard is off unless auth is enabled.
func (m *Middleware) RequireToken() gin.HandlerFunc {
	secret := []byte(m.config.Auth.JWTSecret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Auth.Issuer),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		if !m.config.Auth.Enabled || isReadOnly(c.Request.Method) {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			m.unauthorized(c, "Authentication required")
			return
		}

		token, err := parser.Parse(raw, func(*jwt.Token) (interface{}, error) { return secret, nil })
		if err != nil || !token.Valid {
			m.unauthorized(c, "Invalid or expired token")
			return
		}

		if subject, err := token.Claims.GetSubject(); err == nil && subject != "" {
			c.Set(SubjectKey, subject)
		}
		c.Next()
	}
}

func (m *Middleware) unauthorized(c *gin.Context, message string) {
	appErr := errors.NewUnauthorizedError(message)
	c.Header("WWW-Authenticate", `Bearer realm="dietcoach"`)
	c.AbortWithStatusJSON(appErr.StatusCode(), errors.ToErrorResponse(appErr, c.GetString(RequestIDKey)))
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
