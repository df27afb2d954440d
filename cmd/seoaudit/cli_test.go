package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	main "github.com/fwojciec/seoaudit/cmd/seoaudit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var commands = []string{"crawl", "serve", "list", "show", "export", "delete"}

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Vars{"default_db": "test.db", "default_ua": "ua", "default_exclude": ""},
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	for _, cmd := range commands {
		assert.Contains(t, stdout.String(), cmd, "Help should mention %s command", cmd)
	}
}

func TestCLI_AuditFlagsDefaults(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	parser, err := kong.New(cli,
		kong.Exit(func(int) {}),
		kong.Vars{"default_db": "test.db", "default_ua": "TestBot", "default_exclude": `\.pdf$`},
	)
	require.NoError(t, err)

	_, err = parser.Parse([]string{"crawl", "https://example.com", "--no-robots", "-c", "4"})
	require.NoError(t, err)

	opts := cli.Crawl.Options()
	assert.Equal(t, 200, opts.MaxPages)
	assert.Equal(t, 5, opts.MaxDepth)
	assert.Equal(t, 4, opts.Concurrency)
	assert.Equal(t, "TestBot", opts.UserAgent)
	assert.Equal(t, `\.pdf$`, opts.Exclude)
	assert.False(t, opts.RespectRobots)
	assert.NoError(t, opts.Validate())
	assert.Equal(t, "openai", cli.Crawl.Provider)
	assert.Equal(t, "csv,html,md", cli.Crawl.Format)
}

func TestMain_Run_HelpShowsKongOutput(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.DBPath = filepath.Join(t.TempDir(), "test.db")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"--help"}, stdout, stderr)
	require.NoError(t, err)

	helpOutput := stdout.String()
	for _, cmd := range commands {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s command", cmd)
	}
	assert.Contains(t, helpOutput, "Usage:")
	assert.Contains(t, helpOutput, "Flags:")
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.DBPath = filepath.Join(t.TempDir(), "test.db")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), nil, stdout, stderr)

	require.Error(t, err)
	assert.Contains(t, stdout.String(), "Usage:")
	assert.Contains(t, stderr.String(), "no command specified")
}

func TestMain_Run_UnknownCommand(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	stderr := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"--db", dbPath, "frobnicate"}, &bytes.Buffer{}, stderr)

	require.Error(t, err)
	assert.Contains(t, stderr.String(), "error:")
}

func TestMain_Run_EnvFile(t *testing.T) {
	t.Parallel()

	t.Run("loads variables from --env-file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		envFile := filepath.Join(dir, "test.env")
		require.NoError(t, os.WriteFile(envFile, []byte("SEOAUDIT_ENVFILE_TEST=loaded\n"), 0o600))

		m := main.NewMain()
		err := m.Run(context.Background(),
			[]string{"--env-file", envFile, "--db", filepath.Join(dir, "test.db"), "list"},
			&bytes.Buffer{}, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Equal(t, "loaded", os.Getenv("SEOAUDIT_ENVFILE_TEST"))
	})

	t.Run("fails when an explicit env file is missing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		stderr := &bytes.Buffer{}

		m := main.NewMain()
		err := m.Run(context.Background(),
			[]string{"--env-file=" + filepath.Join(dir, "missing.env"), "--db", filepath.Join(dir, "test.db"), "list"},
			&bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "cannot load env file")
	})
}
