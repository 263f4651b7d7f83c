package app

import (
	"context"
	"net/http"

	"github.com/dwapor/storefront/internal/pkg/clock"
	"github.com/dwapor/storefront/internal/pkg/config"
	"github.com/dwapor/storefront/internal/pkg/goroutine"
	"github.com/dwapor/storefront/internal/pkg/hash"
	"github.com/dwapor/storefront/internal/pkg/idempotency"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/pkg/mail"
	"github.com/dwapor/storefront/internal/pkg/messaging"
	"github.com/dwapor/storefront/internal/pkg/router"
	"github.com/dwapor/storefront/internal/pkg/uid"
	"github.com/dwapor/storefront/internal/pkg/validator"
	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	hasher    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	scheduler gocron.Scheduler

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initScheduler()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
