package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "supersecret")
	t.Setenv("AZURACAST_URL", "http://azuracast.local")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "America/Santiago", cfg.StationTimezone)
	assert.Equal(t, 1, cfg.AzuraCastStationID)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Santiago", loc.String())
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AZURACAST_URL", "http://azuracast.local")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadStationID(t *testing.T) {
	setRequired(t)
	t.Setenv("AZURACAST_STATION_ID", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.AzuraCastStationID)

	t.Setenv("AZURACAST_STATION_ID", "not-a-number")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadBadTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("STATION_TIMEZONE", "Mars/Olympus")

	cfg, err := Load()
	require.NoError(t, err)
	_, err = cfg.Location()
	assert.Error(t, err)
}
