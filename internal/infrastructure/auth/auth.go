package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/korlin/auditorium/internal/domain"
	"github.com/korlin/auditorium/internal/infrastructure/configs"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the verified token claims. Role is the only claim the
// coordinator acts on; anything the client asserts elsewhere is display
// convenience for its own UI and never trusted here.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Authenticator verifies presented credentials and derives the peer
// role. Pure verification: it never inspects room membership and it
// never mints tokens.
type Authenticator struct {
	secret []byte
	opts   []jwt.ParserOption
}

func NewAuthenticator(cfg configs.AuthConfig) *Authenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Authenticator{
		secret: []byte(cfg.Secret),
		opts:   opts,
	}
}

// Verify checks the token's signature and validity window and returns
// the role claim. Any failure is fatal to the connection: a role claim
// of anything but "admin" verifies as user, but a token that does not
// verify yields no role at all.
func (a *Authenticator) Verify(token string) (domain.Role, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, a.opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	if !parsed.Valid {
		return "", ErrInvalidToken
	}

	if claims.Role == string(domain.RoleAdmin) {
		return domain.RoleAdmin, nil
	}
	return domain.RoleUser, nil
}
