package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/campusgate/outpass/core"
)

type Role string

const (
	RoleStudent  Role = "student"
	RoleAdmin    Role = "admin"
	RoleSecurity Role = "security"

	tokenContextKey = "userToken"
	tokenAudience   = "Hostel"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin || r == RoleSecurity
}

// Claims represents the authorization claims transmitted via a JWT.
// Subject is a student id (ST-…), an admin id (AD-…) or a security guard id.
type Claims struct {
	jwt.StandardClaims
	Name string `json:"name,omitempty"`
	Role Role   `json:"role"`
}

func (c Claims) Person() core.Person {
	return core.Person{ID: c.Subject, Name: c.Name}
}

func NewClaims(conf *core.Config, subject, name string, role Role) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name: name,
		Role: role,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func jwtConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// roleMiddleware lets through callers holding any of roles.
func roleMiddleware(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// selfOrAdminMiddleware guards /students/:id routes.
func selfOrAdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		if claims.Role == RoleAdmin || (claims.Role == RoleStudent && claims.Subject == ctx.Param("id")) {
			return next(ctx)
		}
		return errHttpForbidden
	}
}
