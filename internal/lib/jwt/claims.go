// Package jwt implements issuing and parsing of the access/refresh token pair.
//
// Both tokens carry the user uid as subject, the user's email and a token
// type tag. Each token gets a unique jti so a refresh token can be
// blacklisted individually on logout.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type tags stored in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// CustomClaims holds the claims carried by both tokens of a pair.
type CustomClaims struct {
	Email                string `json:"email"`
	TokenType            string `json:"token_type"`
	jwt.RegisteredClaims        // Subject = user uid, ID = jti
}

// TokenPair is one issued access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Maker issues and parses token pairs.
type Maker interface {
	// GeneratePair mints a new access/refresh pair for the user.
	GeneratePair(useruid, email string) (*TokenPair, error)
	// ParseToken verifies the signature and expiry and returns the claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl implements Maker with an HMAC secret and configured lifetimes.
type MakerImpl struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTMaker builds a MakerImpl from the signing secret and token lifetimes.
func NewJWTMaker(secretKey string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}
