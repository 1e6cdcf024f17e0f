package auth

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers missing, malformed, expired, and badly signed
// bearer tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the verified caller extracted from a bearer token.
type Identity struct {
	Subject string
	Email   string
	IsAdmin bool
}

// tokenClaims is the internal claims type used for JWT parsing and signing.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin,omitempty"`
}

// Verifier validates HS256 bearer tokens and resolves admin status from,
// in order: an explicit admin claim, the operator-configured allow-list,
// and a legacy single-email fallback kept as a migration shim.
type Verifier struct {
	secret           []byte
	adminEmails      map[string]struct{}
	legacyAdminEmail string
	legacyWarn       sync.Once
	now              func() time.Time
}

// NewVerifier builds a Verifier. adminEmails and legacyAdminEmail may be
// empty; matching is case-insensitive.
func NewVerifier(secret string, adminEmails []string, legacyAdminEmail string) *Verifier {
	allow := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allow[email] = struct{}{}
		}
	}
	return &Verifier{
		secret:           []byte(secret),
		adminEmails:      allow,
		legacyAdminEmail: strings.ToLower(strings.TrimSpace(legacyAdminEmail)),
		now:              time.Now,
	}
}

// Verify parses and validates a bearer token, returning the caller identity.
func (v *Verifier) Verify(token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(v.now))
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	return Identity{
		Subject: claims.Subject,
		Email:   email,
		IsAdmin: v.isAdmin(claims.Admin, email),
	}, nil
}

// Sign issues a token for subject valid for ttl. Admin status is not baked
// into issued tokens; it is resolved from configuration at verify time.
func (v *Verifier) Sign(subject, email string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (v *Verifier) isAdmin(adminClaim bool, email string) bool {
	if adminClaim {
		return true
	}
	if email == "" {
		return false
	}
	if _, ok := v.adminEmails[email]; ok {
		return true
	}
	if v.legacyAdminEmail != "" && email == v.legacyAdminEmail {
		v.legacyWarn.Do(func() {
			log.Printf("auth: granting admin via LEGACY_ADMIN_EMAIL; configure ADMIN_EMAILS instead")
		})
		return true
	}
	return false
}
