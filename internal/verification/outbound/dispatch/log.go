package dispatch

import (
	"context"
	"log/slog"

	"github.com/dwapor/storefront/internal/verification/usecase"
)

// Log writes the code to the application log. Local development only.
type Log struct{}

func NewLog() *Log {
	return &Log{}
}

func (*Log) DispatchCode(ctx context.Context, msg usecase.CodeDispatch) error {
	slog.WarnContext(ctx, "verification code issued",
		"username", msg.Username,
		"purpose", msg.Purpose.String(),
		"otp", msg.Code,
		"expires_at", msg.ExpiresAt,
	)
	return nil
}
