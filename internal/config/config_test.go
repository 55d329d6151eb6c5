package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"procurement-backoffice/internal/config"
	"procurement-backoffice/internal/core"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/procurement")

	cfg := config.Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "postgres://localhost/procurement", cfg.DatabaseURL)
}

func TestNewLogger(t *testing.T) {
	logger := config.NewLogger(&config.Config{LogLevel: "debug", LogFormat: "text"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger = config.NewLogger(&config.Config{LogLevel: "loud"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestParseProfiles(t *testing.T) {
	data := []byte(`
profiles:
  - type: INVOICE
    kind: LABOR
    allow_edit_total: false
  - type: PURCHASE_ORDER
    kind: MATERIAL
    hide_charges: true
    total_field: po_total
`)
	profiles, err := config.ParseProfiles(data, core.DefaultProfiles())
	require.NoError(t, err)

	invoiceLabor := profiles.Lookup(core.Invoice, core.Labor)
	assert.False(t, invoiceLabor.AllowEditTotal)
	assert.True(t, invoiceLabor.HideCharges, "unset switches keep the built-in value")
	assert.Equal(t, core.FieldAmount, invoiceLabor.TotalField)

	po := profiles.Lookup(core.PurchaseOrder, core.Material)
	assert.True(t, po.HideCharges)
	assert.Equal(t, "po_total", po.TotalField)

	// base is not modified
	assert.True(t, core.DefaultProfiles().Lookup(core.Invoice, core.Labor).AllowEditTotal)
}

func TestParseProfiles_Errors(t *testing.T) {
	_, err := config.ParseProfiles([]byte("profiles: [{type: QUOTE, kind: MATERIAL}]"), core.DefaultProfiles())
	assert.Error(t, err)

	_, err = config.ParseProfiles([]byte("profiles: {"), core.DefaultProfiles())
	assert.Error(t, err)
}

func TestLoadProfiles(t *testing.T) {
	profiles, err := config.LoadProfiles("")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultProfiles(), profiles)

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  - {type: CHANGE_ORDER, kind: MATERIAL, allow_edit_total: true}\n"), 0o600))
	profiles, err = config.LoadProfiles(path)
	require.NoError(t, err)
	assert.True(t, profiles.Lookup(core.ChangeOrder, core.Material).AllowEditTotal)

	_, err = config.LoadProfiles(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
