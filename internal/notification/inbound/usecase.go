package inbound

import (
	"context"

	"github.com/dwapor/storefront/internal/notification/usecase"
)

type uc interface {
	SendVerificationCode(ctx context.Context, in usecase.SendVerificationCodeInput) error
}
