package token

import (
	"weaveid/internal/platform/middleware"
)

// ServiceAdapter exposes the token service through the middleware's
// validator interface.
type ServiceAdapter struct {
	service *Service
}

func NewServiceAdapter(service *Service) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

func (a *ServiceAdapter) ValidateAccess(tokenString string) (*middleware.AuthClaims, error) {
	claims, err := a.service.Verify(tokenString, TypeAccess)
	if err != nil {
		return nil, err
	}
	return &middleware.AuthClaims{UserID: claims.Subject}, nil
}
