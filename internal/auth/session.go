// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName carries the session token for browser clients.
const CookieName = "auth_token"

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenExpire is the lifetime of issued tokens; zero means no exp claim.
	tokenExpire time.Duration
)

var ErrNotInitialized = errors.New("auth keys not initialized")

// Claims identify a player. Guests get a fresh id and the display name
// they asked for.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Init generates a fresh ed25519 key pair at runtime and sets the token expiration.
func Init(expire time.Duration) error {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	publicKey, privateKey = pub, priv
	tokenExpire = expire
	return nil
}

// InitFromPath reads a raw ed25519 private key from file. The public key is
// derived from it.
func InitFromPath(privatePath string, expire time.Duration) error {
	data, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	if len(data) != ed25519.PrivateKeySize {
		return fmt.Errorf("private key file holds %d bytes, want %d", len(data), ed25519.PrivateKeySize)
	}
	privateKey = ed25519.PrivateKey(data)
	publicKey = privateKey.Public().(ed25519.PublicKey)
	tokenExpire = expire
	return nil
}

// CreateJWT signs a token with "sub" = userID.
func CreateJWT(userID uuid.UUID, name string) (string, error) {
	if privateKey == nil {
		return "", ErrNotInitialized
	}
	now := time.Now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if tokenExpire > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(tokenExpire))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a token and returns the user id and display name
// it carries.
func AuthenticateJWT(tokenString string) (uuid.UUID, string, error) {
	if publicKey == nil {
		return uuid.Nil, "", ErrNotInitialized
	}
	var claims Claims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return uuid.Nil, "", fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid sub in jwt: %w", err)
	}
	return userID, claims.Name, nil
}
