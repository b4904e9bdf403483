package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer holds the process-wide signing secret and algorithm. It is built
// once at startup and only read afterwards.
type Signer struct {
	method *jwt.SigningMethodHMAC
	secret []byte
}

// NewSigner accepts HMAC algorithm identifiers (HS256, HS384, HS512).
func NewSigner(secret, algorithm string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("signer: empty secret")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("signer: unsupported algorithm %q", algorithm)
	}
	return &Signer{method: method, secret: []byte(secret)}, nil
}

// Algorithm returns the algorithm identifier written into token headers.
func (s *Signer) Algorithm() string { return s.method.Alg() }
