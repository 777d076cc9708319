package handler

import (
	"time"

	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/internal/core/ports"
)

func toIdentityResponse(i *domain.Identity, now time.Time) identityResponse {
	return identityResponse{
		ID:                i.ID,
		Email:             i.Email,
		FirstName:         i.FirstName,
		LastName:          i.LastName,
		PhoneNumber:       i.PhoneNumber,
		Role:              string(i.Role),
		IsActive:          i.IsActive,
		Locked:            i.IsLocked(now),
		PasswordChangedAt: i.PasswordChangedAt,
		LastLogin:         i.LastLogin,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

func newAuthResponse(res *ports.AuthResult, now time.Time) authResponse {
	return authResponse{
		Success: true,
		Token:   res.Token,
		Data:    identityData{Identity: toIdentityResponse(res.Identity, now)},
	}
}

func newIdentityEnvelope(i *domain.Identity, now time.Time) identityEnvelope {
	return identityEnvelope{Success: true, Data: identityData{Identity: toIdentityResponse(i, now)}}
}
