package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeSession       = "session"
	PurposePasswordReset = "password_reset"
)

var ErrWrongPurpose = errors.New("token purpose mismatch")

type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Purpose   string `json:"purpose"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 tokens with one process-wide secret.
type Signer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type SignerOption func(*Signer)

// WithClock replaces time.Now, mostly for expiry tests.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		s.now = now
	}
}

func NewSigner(secret, issuer string, opts ...SignerOption) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("signing secret required")
	}
	s := &Signer{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Signer) Issue(claims Claims, ttl time.Duration) (string, error) {
	if claims.UserID == "" {
		return "", errors.New("token subject required")
	}
	if claims.Purpose == "" {
		claims.Purpose = PurposeSession
	}
	now := s.now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifies signature, expiry, issuer and purpose. Callers should not
// distinguish between the failure reasons when answering clients.
func (s *Signer) Parse(tokenString, purpose string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, options...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: got %q", ErrWrongPurpose, claims.Purpose)
	}
	if claims.UserID == "" || claims.UserID != claims.Subject {
		return nil, jwt.ErrTokenInvalidSubject
	}
	return claims, nil
}
