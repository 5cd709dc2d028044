//go:build unit

package config_test

import (
	"os"
	"testing"
	"time"

	"grid-reservation/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults to the in-memory store", func(t *testing.T) {
		t.Setenv("PORT", "8000")

		cfg, err := config.LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "8000", cfg.Server.Port)
		assert.Equal(t, config.StoreMemory, cfg.Store.Driver)
		assert.Equal(t, "reservation_system.db", cfg.SQLite.Path)
		assert.False(t, cfg.Booking.SeedDemoReservations)
		assert.Equal(t, 12*time.Hour, cfg.CORS.MaxAge)
	})

	t.Run("missing PORT fails", func(t *testing.T) {
		t.Setenv("PORT", "")
		require.NoError(t, os.Unsetenv("PORT"))

		_, err := config.LoadConfig()
		assert.Error(t, err)
	})

	t.Run("postgres driver requires credentials", func(t *testing.T) {
		t.Setenv("PORT", "8000")
		t.Setenv("STORE_DRIVER", config.StorePostgres)

		_, err := config.LoadConfig()
		assert.ErrorContains(t, err, "DB_USER")
	})

	t.Run("unknown driver is rejected", func(t *testing.T) {
		t.Setenv("PORT", "8000")
		t.Setenv("STORE_DRIVER", "mongo")

		_, err := config.LoadConfig()
		assert.ErrorContains(t, err, "unsupported STORE_DRIVER")
	})
}

func TestBookingConfigLocation(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		want    string
		wantErr bool
	}{
		{name: "empty means local", tz: "", want: time.Local.String()},
		{name: "explicit local", tz: "Local", want: time.Local.String()},
		{name: "named zone", tz: "UTC", want: "UTC"},
		{name: "invalid zone", tz: "Mars/Olympus_Mons", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.BookingConfig{TimeZone: tt.tz}
			loc, err := cfg.Location()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc.String())
		})
	}
}
