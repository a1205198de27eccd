package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aau-transit/bustrack/internal/auth"
	"github.com/aau-transit/bustrack/internal/schedule"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestScheduleCmd_Table(t *testing.T) {
	out, err := run(t, "schedule")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "Location")
	assert.Contains(t, lines[2], "7:30am-8:30am")
	assert.Contains(t, lines[5], "10:00am-11:00am")
}

func TestScheduleCmd_JSON(t *testing.T) {
	out, err := run(t, "schedule", "--json")
	require.NoError(t, err)

	var entries []schedule.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Equal(t, schedule.Default().Entries(), entries)
}

func TestHashPasswordCmd(t *testing.T) {
	out, err := run(t, "hash-password", "secret123")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	ok, err := auth.VerifyPassword("secret123", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashPasswordCmd_Policy(t *testing.T) {
	_, err := run(t, "hash-password", "short")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)

	out, err := run(t, "hash-password", "--skip-policy", "short")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "$argon2id$"))

	_, err = run(t, "hash-password")
	assert.Error(t, err)
}

func TestMigrateCmd_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, "migrate")
	assert.ErrorContains(t, err, "database url is required")
}
