package verification

import (
	"context"
	"testing"

	"github.com/dwapor/storefront/internal/pkg/clock"
	"github.com/dwapor/storefront/internal/pkg/config"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/pkg/mail"
	"github.com/dwapor/storefront/internal/verification/outbound/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMail struct{}

func (nopMail) Send(context.Context, mail.Message) error { return nil }
func (nopMail) Close() error                             { return nil }

func TestNewDispatch(t *testing.T) {
	cfgFor := func(driver string) config.Config {
		cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  verification:\n    dispatch:\n      driver: "+driver+"\n"))
		require.NoError(t, err)
		return cfg
	}
	base := Dependency{Instrument: instrument.NewNoop(), Clock: clock.New()}

	dep := base
	dep.Config = cfgFor("log")
	d, err := newDispatch(dep)
	require.NoError(t, err)
	assert.IsType(t, &dispatch.Log{}, d)

	dep.Config = cfgFor("mail")
	_, err = newDispatch(dep)
	assert.ErrorContains(t, err, "needs mail")

	dep.Mail = nopMail{}
	d, err = newDispatch(dep)
	require.NoError(t, err)
	assert.IsType(t, &dispatch.Mail{}, d)

	dep.Config = cfgFor("mq")
	_, err = newDispatch(dep)
	assert.ErrorContains(t, err, "needs messaging")

	dep.Config = cfgFor("carrier-pigeon")
	_, err = newDispatch(dep)
	assert.ErrorContains(t, err, "unknown dispatch driver")
}
