package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/edward-yakop/go-tidemodel/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFailedStepExitsNonZero(t *testing.T) {
	t.Setenv("AVISO_USERNAME", "")
	t.Setenv("AVISO_PASSWORD", "")
	opt, err := app.ParseOption(app.ArgsList{Dir: filepath.Join(t.TempDir(), "tide_model"), Step: "locate"})
	require.NoError(t, err)

	assert.Equal(t, 1, run(context.Background(), opt))
}
