package main

import (
	"io"
	"log/slog"
	"testing"

	"ng-locations/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsLoaderError(t *testing.T) {
	t.Setenv("LOCATIONS_SOURCE", "postgres")
	t.Setenv("PG_HOST", "127.0.0.1")
	t.Setenv("PG_PORT", "1")
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_HOST", "")

	err := run(logger.New(io.Discard, "text", slog.LevelError))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader init")
}
