package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/pkg/config"
)

// RoleAdmin is the only privileged role the storefront recognizes.
const RoleAdmin = "admin"

// AccessTokenPayload carries the identity minted into an access token.
type AccessTokenPayload struct {
	AdminID uuid.UUID
	Email   string
	Role    string
}

// AccessTokenClaims is the decoded form handed to middleware.
type AccessTokenClaims struct {
	AdminID uuid.UUID
	Email   string
	Role    string
	jwt.RegisteredClaims
}

type tokenClaims struct {
	AdminID string `json:"admin_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// MintAccessToken signs an HS256 access token for the given payload.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("jwt secret is required")
	}
	if payload.AdminID == uuid.Nil {
		return "", errors.New("admin id is required")
	}

	expiry := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	claims := tokenClaims{
		AdminID: payload.AdminID.String(),
		Email:   payload.Email,
		Role:    payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    cfg.Issuer,
			Subject:   payload.AdminID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the signature, issuer and expiry of a token.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}

	adminID, err := uuid.Parse(claims.AdminID)
	if err != nil {
		return nil, fmt.Errorf("invalid admin id claim: %w", err)
	}

	return &AccessTokenClaims{
		AdminID:          adminID,
		Email:            claims.Email,
		Role:             claims.Role,
		RegisteredClaims: claims.RegisteredClaims,
	}, nil
}
