package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

type tokenHeader struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims is the session token payload issued by the upstream auth service.
// Tenant and branch membership travel in private claims so identity
// resolution never needs a database round trip.
type Claims struct {
	Subject   string   `json:"sub"`            // staff user id
	TenantID  string   `json:"tid"`            // owning tenant id
	BranchIDs []string `json:"bids,omitempty"` // accessible facility ids
	ExpiresAt int64    `json:"exp,omitempty"`
	IssuedAt  int64    `json:"iat,omitempty"`
}

// Valid checks the temporal claims. Zero values are treated as unset.
func (c Claims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return ErrExpiredToken
	}
	return nil
}

// TokenProvider verifies HS256 session tokens from the Authorization header
// and derives the caller's Identity from the claims.
type TokenProvider struct {
	secret []byte
}

// NewTokenProvider creates a provider with the shared signing secret.
// The secret should be at least 32 bytes for HMAC-SHA256.
func NewTokenProvider(secret string) (*TokenProvider, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenProvider{secret: []byte(secret)}, nil
}

// Resolve implements Provider. A missing or malformed bearer token yields
// ErrUnauthorized; structurally valid tokens with bad ids yield
// ErrMalformedClaims, still wrapped in ErrUnauthorized so callers can treat
// every failure as a 401.
func (p *TokenProvider) Resolve(r *http.Request) (Identity, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return Identity{}, ErrUnauthorized
	}

	var claims Claims
	if err := p.parse(raw, &claims); err != nil {
		return Identity{}, errors.Join(ErrUnauthorized, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, errors.Join(ErrUnauthorized, ErrMalformedClaims, err)
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return Identity{}, errors.Join(ErrUnauthorized, ErrMalformedClaims, err)
	}

	branchIDs := make([]uuid.UUID, 0, len(claims.BranchIDs))
	for _, raw := range claims.BranchIDs {
		branchID, err := uuid.Parse(raw)
		if err != nil {
			return Identity{}, errors.Join(ErrUnauthorized, ErrMalformedClaims, err)
		}
		branchIDs = append(branchIDs, branchID)
	}

	return Identity{UserID: userID, TenantID: tenantID, BranchIDs: branchIDs}, nil
}

// Generate signs the claims into a compact token. Used by tests and by the
// upstream auth service sharing this package.
func (p *TokenProvider) Generate(claims Claims) (string, error) {
	headerJSON, err := json.Marshal(tokenHeader{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + p.sign(payload), nil
}

func (p *TokenProvider) parse(tokenString string, claims *Claims) error {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}

	// Constant-time signature check before touching any payload bytes.
	payload := parts[0] + "." + parts[1]
	expected := p.sign(payload)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return ErrInvalidToken
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return errors.Join(ErrInvalidToken, err)
	}
	var header tokenHeader
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return errors.Join(ErrInvalidToken, err)
	}
	// Reject unexpected algorithms to prevent algorithm confusion attacks.
	if header.Algorithm != headerAlgorithm {
		return ErrInvalidToken
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return errors.Join(ErrInvalidToken, err)
	}
	if err := json.Unmarshal(claimsJSON, claims); err != nil {
		return errors.Join(ErrInvalidToken, err)
	}

	return claims.Valid()
}

func (p *TokenProvider) sign(payload string) string {
	h := hmac.New(sha256.New, p.secret)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(auth[len(prefix):]), true
}

// Tokens omit base64 padding per RFC 7515; Go's decoder requires it back.
func base64URLEncode(data []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(data), "=")
}

func base64URLDecode(s string) ([]byte, error) {
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.URLEncoding.DecodeString(s)
}
