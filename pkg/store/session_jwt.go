package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"deptrecords/internal/util"
)

const (
	defaultJWTIssuer   = "deptrecords"
	defaultJWTAudience = "deptrecords-api"
)

var defaultJWTLeeway = 30 * time.Second

// JWTOptions configures claim validation behavior.
type JWTOptions struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// JWTSessionStore issues and validates HS256 session tokens. Logout is
// handled by recording the token with a TokenRevoker for the remainder
// of its lifetime; validation consults the revoker on every resolve.
type JWTSessionStore struct {
	secret   []byte
	ttl      time.Duration
	revoker  TokenRevoker
	issuer   string
	audience string
	leeway   time.Duration
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTSessionStore builds a session store from a shared secret.
func NewJWTSessionStore(secret string, ttl time.Duration, revoker TokenRevoker, opts JWTOptions) (*JWTSessionStore, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if revoker == nil {
		revoker = NewMemoryTokenRevoker()
	}
	if strings.TrimSpace(opts.Issuer) == "" {
		opts.Issuer = defaultJWTIssuer
	}
	if strings.TrimSpace(opts.Audience) == "" {
		opts.Audience = defaultJWTAudience
	}
	if opts.Leeway <= 0 {
		opts.Leeway = defaultJWTLeeway
	}
	return &JWTSessionStore{
		secret:   []byte(secret),
		ttl:      ttl,
		revoker:  revoker,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		leeway:   opts.Leeway,
	}, nil
}

// NewSession issues a signed token for a subject with its role.
func (s *JWTSessionStore) NewSession(subjectID, role string) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        util.NewID(),
			Subject:   subjectID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// GetSession validates a token and returns the session it carries.
// Expired, tampered, and revoked tokens all resolve to not-found.
func (s *JWTSessionStore) GetSession(token string) (Session, bool, error) {
	claims, err := s.parse(token)
	if err != nil {
		return Session{}, false, nil
	}
	revoked, err := s.revoker.IsRevoked(token)
	if err != nil {
		return Session{}, false, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Session{}, false, nil
	}
	return Session{SubjectID: claims.Subject, Role: claims.Role}, true, nil
}

// DeleteSession revokes a token for the remainder of its lifetime.
// An already-invalid token is a no-op.
func (s *JWTSessionStore) DeleteSession(token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time) + s.leeway
	if remaining <= 0 {
		return nil
	}
	return s.revoker.Revoke(token, remaining)
}

func (s *JWTSessionStore) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
