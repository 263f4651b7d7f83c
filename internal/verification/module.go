package verification

import (
	"context"
	"fmt"

	"github.com/dwapor/storefront/internal/pkg/clock"
	"github.com/dwapor/storefront/internal/pkg/config"
	"github.com/dwapor/storefront/internal/pkg/hash"
	"github.com/dwapor/storefront/internal/pkg/idempotency"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/pkg/mail"
	"github.com/dwapor/storefront/internal/pkg/messaging"
	"github.com/dwapor/storefront/internal/pkg/otp"
	"github.com/dwapor/storefront/internal/pkg/router"
	"github.com/dwapor/storefront/internal/pkg/uid"
	"github.com/dwapor/storefront/internal/pkg/validator"
	"github.com/dwapor/storefront/internal/verification/inbound"
	"github.com/dwapor/storefront/internal/verification/outbound/cache"
	"github.com/dwapor/storefront/internal/verification/outbound/db"
	"github.com/dwapor/storefront/internal/verification/outbound/dispatch"
	"github.com/dwapor/storefront/internal/verification/usecase"
	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	DispatchMQ   = "mq"
	DispatchMail = "mail"
	DispatchLog  = "log"
)

type Dependency struct {
	Ctx         context.Context            `validate:"required"`
	DBConn      *pgxpool.Pool              `validate:"required"`
	CacheConn   redis.UniversalClient      `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Scheduler   gocron.Scheduler           `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Hasher      hash.Hash                  `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	// Messaging is required by the mq dispatch driver.
	Messaging messaging.Messaging
	// Mail is required by the mail dispatch driver.
	Mail mail.Mail
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDispatch, err := newDispatch(dep)
	if err != nil {
		return err
	}

	timeout := dep.Config.GetSecond("modules.verification.store_timeout_seconds")

	uc := usecase.New(usecase.Dependency{
		RepoDB:       db.NewDB(dep.DBConn, dep.Instrument, timeout),
		RepoCache:    cache.NewCache(dep.CacheConn, dep.Instrument),
		RepoDispatch: repoDispatch,
		Idempotency:  dep.Idempotency,
		Validator:    dep.Validator,
		Config:       dep.Config,
		Generator:    otp.NewNumeric(dep.Config.GetInt("modules.verification.code_length")),
		Hasher:       dep.Hasher,
		CodeDigest:   dep.HMAC,
		Clock:        dep.Clock,
		Instrument:   dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return inbound.RegisterCron(dep.Ctx, dep.Scheduler, dep.Config, uc)
}

type dispatcher interface {
	DispatchCode(ctx context.Context, msg usecase.CodeDispatch) error
}

func newDispatch(dep Dependency) (dispatcher, error) {
	switch driver := dep.Config.GetString("modules.verification.dispatch.driver"); driver {
	case DispatchMQ:
		if dep.Messaging == nil {
			return nil, fmt.Errorf("verification: dispatch driver %q needs messaging", driver)
		}
		return dispatch.NewMQ(dep.Messaging, dep.UID, dep.Instrument), nil
	case DispatchMail:
		if dep.Mail == nil {
			return nil, fmt.Errorf("verification: dispatch driver %q needs mail", driver)
		}
		return dispatch.NewMail(dep.Mail, dep.Clock, dep.Instrument), nil
	case DispatchLog:
		return dispatch.NewLog(), nil
	default:
		return nil, fmt.Errorf("verification: unknown dispatch driver %q", driver)
	}
}
