package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Token type discriminator values carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken is the single failure sentinel for token verification.
// Bad signature, malformed structure, and expiry all collapse into it so
// callers cannot be used as a validity oracle.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the token claims issued and verified by TokenAuthority.
type Claims struct {
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim as a numeric user ID.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// TokenAuthority mints and verifies signed, time-bounded tokens.
// It holds only configuration and is safe for concurrent use.
type TokenAuthority struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenAuthority creates a TokenAuthority for the given HMAC
// algorithm name (HS256, HS384, or HS512).
func NewTokenAuthority(secret, algorithm string, accessTTL, refreshTTL time.Duration) (*TokenAuthority, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm: %s", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm: %s", algorithm)
	}
	return &TokenAuthority{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssueAccess mints an access token carrying the user's email and role.
func (a *TokenAuthority) IssueAccess(userID int64, email, role string) (string, error) {
	return a.sign(Claims{
		Email:     email,
		Role:      role,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        ulid.Make().String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.accessTTL)),
		},
	})
}

// IssueRefresh mints a refresh token. It carries only the subject ID so
// a leaked refresh token exposes no profile claims.
func (a *TokenAuthority) IssueRefresh(userID int64) (string, error) {
	return a.sign(Claims{
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        ulid.Make().String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.refreshTTL)),
		},
	})
}

func (a *TokenAuthority) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(a.method, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the decoded claims.
// It does not check the "type" claim; call sites decide whether they
// expect an access or refresh token.
func (a *TokenAuthority) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != a.method.Alg() {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
