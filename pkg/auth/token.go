package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/unieats/unieats-backend/pkg/config"
	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// VerifyAccessToken validates the JWT string and returns the principal it
// asserts. Expired credentials and malformed/forged credentials map to
// distinct error codes so clients can tell "log in again" from "go away".
func VerifyAccessToken(cfg config.JWTConfig, tokenString string) (*Principal, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTokenExpired, err, "credential expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid credential")
	}

	if claims.SubjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "credential missing subject")
	}
	if !claims.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "credential missing role")
	}

	return &Principal{ID: claims.SubjectID, Role: claims.Role}, nil
}

// MintAccessToken signs a token for tests and local tooling. Production
// tokens come from the identity provider.
func MintAccessToken(cfg config.JWTConfig, now time.Time, ttl time.Duration, principal Principal) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if !principal.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", principal.Role)
	}

	claims := AccessTokenClaims{
		SubjectID: principal.ID,
		Role:      principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}
