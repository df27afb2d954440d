package main_test

import (
	"bytes"
	"context"
	"testing"

	main "github.com/fwojciec/seoaudit/cmd/seoaudit"
	"github.com/fwojciec/seoaudit/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("stops when the context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var cfg main.PipelineConfig
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:        ctx,
			Stdout:     stdout,
			Stderr:     stderr,
			Getenv:     noEnv,
			Audits:     &mock.AuditService{},
			Pages:      &mock.PageService{},
			NewAuditor: fakeAuditor(&cfg, nil),
		}

		err := (&main.ServeCmd{Addr: "127.0.0.1:0", MaxRunning: 1}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Listening on 127.0.0.1:0")
		assert.Contains(t, stdout.String(), "Stopped")
		assert.Contains(t, stderr.String(), "AI advice disabled")
		assert.Empty(t, cfg.APIKey)
	})
}
