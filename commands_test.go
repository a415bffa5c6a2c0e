package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateRejectsMemoryStoreBeforeStartup(t *testing.T) {
	t.Setenv("STORE", "memory")
	// No JWT_SECRET: reaching the token setup would fail with a different error.
	t.Setenv("JWT_SECRET", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--env-file", filepath.Join(t.TempDir(), "missing.env")})

	err := cmd.Execute()
	require.ErrorIs(t, err, errMigrateNeedsPostgres)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger("loud")
	require.Error(t, err)

	log, err := newLogger("debug")
	require.NoError(t, err)
	require.Equal(t, "debug", log.GetLevel().String())
}
