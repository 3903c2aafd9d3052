package auth

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/clockx"
	"github.com/Abraxas-365/otpauth/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

const audience = "otpauth-api"

// JWTService implements TokenService with HS256 JWTs.
type JWTService struct {
	secretKey []byte
	ttl       time.Duration
	issuer    string
	clock     clockx.Clock
}

// NewJWTService creates a JWT service. ttl defaults to one hour and issuer to "otpauth".
func NewJWTService(secretKey string, ttl time.Duration, issuer string, clock clockx.Clock) *JWTService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if issuer == "" {
		issuer = "otpauth"
	}
	if clock == nil {
		clock = clockx.New()
	}

	return &JWTService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		issuer:    issuer,
		clock:     clock,
	}
}

// JWTClaims is the token payload.
type JWTClaims struct {
	SessionID  kernel.SessionID `json:"sid"`
	Identifier string           `json:"email"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs a token for an authenticated session.
func (j *JWTService) IssueSessionToken(identifier string, sessionID kernel.SessionID) (string, time.Time, error) {
	now := j.clock.Now()
	expiresAt := now.Add(j.ttl)

	claims := JWTClaims{
		SessionID:  sessionID,
		Identifier: identifier,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID.String(),
			Issuer:    j.issuer,
			Subject:   identifier,
			Audience:  []string{audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, ErrTokenGenerationFailed().WithDetail("error", err.Error())
	}

	return tokenString, expiresAt, nil
}

// ValidateSessionToken verifies signature, audience, issuer and lifetime.
func (j *JWTService) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithAudience(audience),
		jwt.WithIssuer(j.issuer),
		jwt.WithTimeFunc(j.clock.Now),
	)

	if err != nil {
		return nil, ErrTokenValidationFailed().WithDetail("error", err.Error())
	}

	if !token.Valid {
		return nil, ErrTokenValidationFailed().WithDetail("error", "token is invalid")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || claims.SessionID.IsEmpty() {
		return nil, ErrTokenValidationFailed().WithDetail("error", "invalid claims")
	}

	return &SessionClaims{
		SessionID:  claims.SessionID,
		Identifier: claims.Identifier,
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
