package notification

import (
	"context"

	"github.com/dwapor/storefront/internal/notification/inbound"
	"github.com/dwapor/storefront/internal/notification/outbound/email"
	"github.com/dwapor/storefront/internal/notification/usecase"
	"github.com/dwapor/storefront/internal/pkg/clock"
	"github.com/dwapor/storefront/internal/pkg/config"
	"github.com/dwapor/storefront/internal/pkg/goroutine"
	"github.com/dwapor/storefront/internal/pkg/idempotency"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/pkg/mail"
	"github.com/dwapor/storefront/internal/pkg/messaging"
	"github.com/dwapor/storefront/internal/pkg/uid"
	"github.com/dwapor/storefront/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context            `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoMail := email.New(dep.Mail, dep.Config.GetString("mail.from"), dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		RepoMail:    repoMail,
		Idempotency: dep.Idempotency,
		Config:      dep.Config,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	return nil
}
