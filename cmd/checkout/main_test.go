package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenResolver(t *testing.T) {
	t.Parallel()

	remote := func(context.Context, string) (string, error) { return "u1", nil }

	t.Run("resolution on uses the remote resolver", func(t *testing.T) {
		var cfg Config
		cfg.Environment = envProduction
		cfg.Storefront.ResolveTokens = true

		resolve, err := tokenResolver(cfg, remote, slog.Default())
		require.NoError(t, err)
		require.NotNil(t, resolve)
		userID, err := resolve(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "u1", userID)
	})

	t.Run("resolution off is refused in production", func(t *testing.T) {
		var cfg Config
		cfg.Environment = envProduction

		resolve, err := tokenResolver(cfg, remote, slog.Default())
		assert.ErrorIs(t, err, errTrustedTokens)
		assert.Nil(t, resolve)
	})

	t.Run("resolution off warns outside production", func(t *testing.T) {
		var buf bytes.Buffer
		var cfg Config
		cfg.Environment = "development"

		resolve, err := tokenResolver(cfg, remote, slog.New(slog.NewTextHandler(&buf, nil)))
		require.NoError(t, err)
		assert.Nil(t, resolve)
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "environment=development")
	})
}
