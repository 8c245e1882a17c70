package main

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmigrations "github.com/thepaulgroup/lead-assistant/migrations"
)

type fakeMigrator struct {
	up     error
	steps  []int
	forced []int
}

func (f *fakeMigrator) Up() error { return f.up }

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}

func (f *fakeMigrator) Force(version int) error {
	f.forced = append(f.forced, version)
	return nil
}

func TestRunUpIgnoresNoChange(t *testing.T) {
	require.NoError(t, run(&fakeMigrator{up: migrate.ErrNoChange}, nil))
	require.Error(t, run(&fakeMigrator{up: errors.New("dirty")}, nil))
}

func TestRunCommands(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"force", "3"}))
	require.NoError(t, run(m, []string{"down"}))
	assert.Equal(t, []int{3}, m.forced)
	assert.Equal(t, []int{-1}, m.steps)

	assert.Error(t, run(m, []string{"force", "x"}))
	assert.Error(t, run(m, []string{"sideways"}))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.Glob(appmigrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := 0, 0
	for _, name := range entries {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups++
		case strings.HasSuffix(name, ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, ups, downs)
	assert.Equal(t, 4, ups)
}
