package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSignatureExpired = errors.New("signature expired")
	ErrBadSignature     = errors.New("bad signature")
)

type signedValue struct {
	Value string `json:"val"`
	jwt.RegisteredClaims
}

// Signer issues tamper-proof, time-limited tokens carrying a single string.
// The salt namespaces tokens so one kind cannot be replayed as another.
type Signer struct {
	key []byte
	now func() time.Time
}

func NewSigner(secret, salt string) *Signer {
	return &Signer{key: []byte(secret + ":" + salt), now: time.Now}
}

func (s *Signer) Sign(value string) (string, error) {
	claims := signedValue{
		Value: value,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign value: %w", err)
	}
	return token, nil
}

// Unsign verifies token and returns the value it carries. Tokens older than
// maxAge fail with ErrSignatureExpired, anything malformed or forged with
// ErrBadSignature.
func (s *Signer) Unsign(token string, maxAge time.Duration) (string, error) {
	claims := &signedValue{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if claims.IssuedAt == nil {
		return "", ErrBadSignature
	}
	if s.now().Sub(claims.IssuedAt.Time) > maxAge {
		return "", ErrSignatureExpired
	}
	return claims.Value, nil
}
