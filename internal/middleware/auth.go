package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/staffsched/approvals/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys set by RequireRole
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

var (
	errMissingAuth = errors.New("authorization is missing")
	errAuthFormat  = errors.New("invalid authorization format, expected 'Bearer <token>'")
	errNoRole      = errors.New("role not found in token")
)

// Session is the identity carried by a verified session JWT
type Session struct {
	UserID uuid.UUID
	Role   string
}

// Auth verifies session JWTs issued by the identity provider. It never issues them.
type Auth struct {
	secret []byte
}

func NewAuth(secret []byte) *Auth {
	return &Auth{secret: secret}
}

// Parse verifies an HMAC-signed token and extracts sub and role.
func (a *Auth) Parse(tokenString string) (Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return Session{}, err
	}
	if !token.Valid {
		return Session{}, jwt.ErrTokenSignatureInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, jwt.ErrTokenInvalidClaims
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return Session{}, errNoRole
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return Session{}, err
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Session{}, jwt.ErrTokenInvalidSubject
	}
	return Session{UserID: userID, Role: role}, nil
}

// RequireRole validates the JWT and checks the user's role is in allowedRoles
func (a *Auth) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, role := range allowedRoles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		session, err := a.Parse(tokenString)
		if errors.Is(err, errNoRole) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		if !allowed[session.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set(ContextUserID, session.UserID)
		c.Set(ContextUserRole, session.Role)
		c.Next()
	}
}

// SessionFrom returns the identity RequireRole stored on the context.
func SessionFrom(c *gin.Context) (Session, bool) {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return Session{}, false
	}
	userID, ok := id.(uuid.UUID)
	if !ok {
		return Session{}, false
	}
	return Session{UserID: userID, Role: c.GetString(ContextUserRole)}, true
}

// bearerToken tries the access_token cookie first, then the Authorization header.
func bearerToken(c *gin.Context) (string, error) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errMissingAuth
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errAuthFormat
	}
	return parts[1], nil
}
