// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie carrying a player's session token.
const CookieName = "uno_session"

// Issuer signs and verifies session tokens. A session token names a player id and nothing else;
// players are ephemeral and exist only while they sit in a room.
type Issuer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// TTL is the token lifetime. Zero means tokens carry no exp claim.
	TTL time.Duration

	now func() time.Time
}

// NewIssuer generates a fresh ed25519 key pair. Tokens do not survive a restart.
func NewIssuer(ttl time.Duration) (*Issuer, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Issuer{
		privateKey: privateKey,
		publicKey:  publicKey,
		TTL:        ttl,
		now:        time.Now,
	}, nil
}

// CreateJWT creates a signed token with "sub" = playerID.
func (i *Issuer) CreateJWT(playerID uuid.UUID) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub": playerID.String(),
		"iat": now.Unix(),
	}
	if i.TTL > 0 {
		claims["exp"] = now.Add(i.TTL).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(i.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// AuthenticateJWT verifies a token and returns the player id in its "sub" claim.
func (i *Issuer) AuthenticateJWT(tokenString string) (uuid.UUID, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.publicKey, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return uuid.Nil, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid jwt claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing sub in jwt")
	}
	playerID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed sub in jwt: %w", err)
	}
	return playerID, nil
}

// NewSession creates a new player id and its token.
func (i *Issuer) NewSession() (uuid.UUID, string, error) {
	playerID := uuid.New()
	token, err := i.CreateJWT(playerID)
	if err != nil {
		return uuid.Nil, "", err
	}
	return playerID, token, nil
}
