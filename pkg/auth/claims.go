package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/unieats/unieats-backend/pkg/enums"
)

// Principal is the verified identity extracted from a credential.
type Principal struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// AccessTokenClaims is the typed JWT issued by the identity provider.
type AccessTokenClaims struct {
	SubjectID uuid.UUID      `json:"subject_id"`
	Role      enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
