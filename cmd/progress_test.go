package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithProgressShowsLabelAndReturnsWorkError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	out := &bytes.Buffer{}

	err := runWithProgress(context.Background(), out, "Posting...", func(context.Context) error {
		time.Sleep(150 * time.Millisecond)
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Contains(t, out.String(), "Posting...")
}

func TestRunMaybeWithProgressDisabledRunsInline(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	ran := false

	err := runMaybeWithProgress(context.Background(), false, out, "Posting...", func(context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Empty(t, out.String())
}
