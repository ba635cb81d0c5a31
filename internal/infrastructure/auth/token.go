package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthenticated = errors.New("auth: missing or invalid identity")
	ErrMissingSubject  = errors.New("auth: token has no subject claim")
)

// Principal is the canonical authenticated identity. It is produced exactly
// once per request/connection by the verification boundary; downstream code
// consumes only this type.
type Principal struct {
	UserID string
}

// Verifier checks HS256 bearer tokens issued by the identity service.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// NewVerifierFromEnv reads the signing secret from JWT_SECRET.
func NewVerifierFromEnv() (*Verifier, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return nil, errors.New("auth: JWT_SECRET environment variable is not set")
	}
	return NewVerifier([]byte(secret)), nil
}

// Verify parses and validates token, returning the principal carried in its
// subject claim. Expiry is enforced by the jwt library during parsing.
func (v *Verifier) Verify(token string) (Principal, error) {
	if strings.TrimSpace(token) == "" {
		return Principal{}, ErrUnauthenticated
	}

	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		// HMAC family only; reject anything the header claims otherwise.
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !parsed.Valid {
		return Principal{}, ErrUnauthenticated
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Principal{}, ErrMissingSubject
	}
	return Principal{UserID: sub}, nil
}

// Sign issues a token for userID, used by tests and local tooling.
func (v *Verifier) Sign(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtlib.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(v.secret)
}
