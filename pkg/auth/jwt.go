package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of tokens issued by JWT.
const DefaultTokenTTL = time.Hour

const jwtIssuer = "statekit"

// JWT authenticates against a static user table and issues HS256 tokens.
type JWT struct {
	secret []byte
	users  map[string]string
	ttl    time.Duration
	now    func() time.Time
}

// JWTOption configures a JWT backend.
type JWTOption func(*JWT)

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) JWTOption {
	return func(j *JWT) {
		j.ttl = ttl
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) JWTOption {
	return func(j *JWT) {
		j.now = now
	}
}

// NewJWT creates a backend signing with secret. users maps usernames to
// passwords.
func NewJWT(secret []byte, users map[string]string, opts ...JWTOption) (*JWT, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: jwt secret must be at least 16 bytes")
	}
	j := &JWT{
		secret: secret,
		users:  make(map[string]string, len(users)),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for u, p := range users {
		j.users[u] = p
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Authenticate checks creds against the user table and returns a signed
// token for the user.
func (j *JWT) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	want, ok := j.users[creds.Username]
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(creds.Password)) != 1 {
		return "", invalidCredentials()
	}

	now := j.now()
	claims := jwt.RegisteredClaims{
		Issuer:    jwtIssuer,
		Subject:   creds.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature, issuer and expiry of token.
func (j *JWT) Verify(ctx context.Context, token string) error {
	_, err := j.Subject(token)
	return err
}

// Subject returns the username a valid token was issued to.
func (j *JWT) Subject(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.Subject, nil
}

var (
	_ Authenticator = (*JWT)(nil)
	_ Verifier      = (*JWT)(nil)
)
