package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the session token lifetime used when callers do not
// specify one.
const DefaultTokenTTL = time.Hour

var (
	// ErrInvalidIdentity is returned when a token is requested for an
	// identity missing its id or email. Upstream validation should make
	// this unreachable.
	ErrInvalidIdentity = errors.New("identity must have an id and an email")

	// ErrInvalidToken covers every verification failure: malformed
	// token, bad signature, and expiry. Callers cannot distinguish
	// which check failed.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is the minimal authenticated principal embedded in a token
// and attached to a request after verification.
type Identity struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

type tokenClaims struct {
	UserID int    `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// IssueToken mints an HS256-signed token carrying the identity plus
// issuance and expiry timestamps. The signature covers all claims, so
// tampering with any field invalidates the token.
func IssueToken(identity Identity, secret []byte, ttl time.Duration) (string, error) {
	if identity.ID < 1 || strings.TrimSpace(identity.Email) == "" {
		return "", ErrInvalidIdentity
	}

	now := time.Now()
	claims := tokenClaims{
		UserID: identity.ID,
		Email:  identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken recomputes the signature over the claimed payload and
// returns the embedded identity. Validity is entirely self-contained:
// any process holding the secret can verify a token without a session
// store, and a token past its expiry instant is invalid.
func VerifyToken(tokenString string, secret []byte) (Identity, error) {
	claims := tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.UserID < 1 || strings.TrimSpace(claims.Email) == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: claims.UserID, Email: claims.Email}, nil
}
