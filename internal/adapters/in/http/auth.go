package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/kernel"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Roles carried in the role claim.
const (
	RoleOperator    = "operator"
	RoleDistributor = "distributor"
)

const callerKey = "caller"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the JWT payload accepted by the API.
type Claims struct {
	Role          string `json:"role"`
	DistributorID string `json:"distributor_id,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and resolves the caller.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Issue signs a token for subject. Used by tooling and tests.
func (a *Authenticator) Issue(subject, role string, distributorID *kernel.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if distributorID != nil {
		claims.DistributorID = distributorID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Caller parses a raw token into the caller identity.
func (a *Authenticator) Caller(raw string) (access.Caller, error) {
	if len(a.secret) == 0 {
		return access.Caller{}, ErrInvalidToken
	}

	token, err := a.parser.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return access.Caller{}, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return access.Caller{}, ErrInvalidToken
	}

	caller := access.Caller{
		Subject:  claims.Subject,
		Operator: strings.EqualFold(claims.Role, RoleOperator),
	}
	if claims.DistributorID != "" {
		id, parseErr := kernel.UUIDFromString(claims.DistributorID)
		if parseErr != nil {
			return access.Caller{}, errors.Join(ErrInvalidToken, parseErr)
		}
		caller.DistributorID = &id
	}
	return caller, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller in the echo context.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, found := strings.CutPrefix(header, "Bearer ")
			raw = strings.TrimSpace(raw)
			if !found || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, ErrMissingToken.Error())
			}

			caller, err := a.Caller(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error()).SetInternal(err)
			}

			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

func callerFrom(c echo.Context) access.Caller {
	caller, _ := c.Get(callerKey).(access.Caller)
	return caller
}
