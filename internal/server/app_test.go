package server

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/captcha"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	return c
}

func TestNewApp_RequiresSecret(t *testing.T) {
	c := testConfig()

	_, err := NewApp(context.Background(), c)
	require.ErrorIs(t, err, common.ErrMissingSecret)
}

func TestNewApp_UnknownLogBackend(t *testing.T) {
	c := testConfig()
	c.SecretKey = "k"
	c.LogBackend = "syslog"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestNewApp_UnreachableDatabase(t *testing.T) {
	c := testConfig()
	c.SecretKey = "k"
	c.DatabaseDSN = "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1"

	_, err := NewApp(context.Background(), c)
	require.ErrorContains(t, err, "db init error")
}

func TestApp_OptionalIntegrations(t *testing.T) {
	c := testConfig()
	app := &App{config: c, logger: logging.Nop()}

	assert.IsType(t, captcha.NopVerifier{}, app.captcha())
	assert.IsType(t, &notify.LogNotifier{}, app.notifier())

	c.RecaptchaSecret = "shh"
	c.SMTPHost = "mail.local"
	assert.IsType(t, &captcha.RecaptchaVerifier{}, app.captcha())
	assert.IsType(t, &notify.SMTPNotifier{}, app.notifier())
}
