package blob

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a signed URL token is malformed, expired
// or issued for a different key.
var ErrInvalidToken = errors.New("invalid blob token")

const tokenIssuer = "mysoilmate-blobs"

// Signer issues and verifies HS256 tokens that grant temporary read access
// to a single blob key.
type Signer struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

// NewSigner returns a Signer producing URLs of the form
// baseURL/<key>?token=<jwt> valid for ttl.
func NewSigner(secret []byte, ttl time.Duration, baseURL string) (*Signer, error) {
	if len(secret) < 16 {
		return nil, errors.New("blob signing secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("blob url ttl must be positive")
	}
	return &Signer{secret: secret, ttl: ttl, baseURL: baseURL, now: time.Now}, nil
}

// SignedURL returns a URL granting read access to key until the TTL lapses.
func (s *Signer) SignedURL(key string) (string, error) {
	if !ValidKey(key) {
		return "", ErrInvalidKey
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   key,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign blob token: %w", err)
	}
	return s.baseURL + "/" + url.PathEscape(key) + "?token=" + url.QueryEscape(token), nil
}

// Verify checks that token is a valid, unexpired grant for key.
func (s *Signer) Verify(key, token string) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(key),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
