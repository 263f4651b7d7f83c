package inbound

import (
	"context"

	"github.com/dwapor/storefront/internal/pkg/router"
	"github.com/dwapor/storefront/internal/verification/usecase"
)

type uc interface {
	RequestCode(ctx context.Context, in usecase.RequestCodeInput) (*usecase.RequestCodeOutput, error)
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/verification/request-code", end.RequestCode)
	r.POST("/api/v1/verification/verify-code", end.VerifyCode)
}
