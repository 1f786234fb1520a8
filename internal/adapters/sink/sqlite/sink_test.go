package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSink(t *testing.T) *Sink {
	t.Helper()

	sink, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	return sink
}

func TestSinkRecordsPostResults(t *testing.T) {
	t.Parallel()

	sink := openTestSink(t)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	want := []domain.PostResult{
		{
			CorrelationID: "run-1",
			AccountID:     "primary",
			Outcome:       domain.Succeeded(),
			ContentID:     "1001",
			ContentURL:    "https://x.com/tester/status/1001",
			Timestamp:     at,
		},
		{
			CorrelationID: "run-1",
			AccountID:     "backup",
			Outcome:       domain.Outcome{Status: domain.OutcomeFailure, Reason: domain.KindChallengeRequired, Message: "challenge"},
			Timestamp:     at,
		},
	}

	for _, result := range want {
		require.NoError(t, sink.RecordPost(context.Background(), result))
	}
	require.NoError(t, sink.RecordPost(context.Background(), domain.PostResult{CorrelationID: "run-2", AccountID: "other", Timestamp: at}))

	got, err := sink.PostResults(context.Background(), "run-1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("post results mismatch (-want +got):\n%s", diff)
	}
}

func TestSinkRecordsEngagementResults(t *testing.T) {
	t.Parallel()

	sink := openTestSink(t)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	want := []domain.EngagementResult{
		{
			CorrelationID: "run-1",
			AccountID:     "primary",
			Term:          "#golang",
			Outcome:       domain.Succeeded(),
			Liked:         2,
			Skipped:       1,
			LikedIDs:      []string{"101", "102"},
			Timestamp:     at,
		},
		{
			CorrelationID: "run-1",
			AccountID:     "backup",
			Term:          "#golang",
			Outcome:       domain.Outcome{Status: domain.OutcomeFailure, Reason: domain.KindStaleElement},
			Failed:        3,
			Timestamp:     at,
		},
	}

	for _, result := range want {
		require.NoError(t, sink.RecordEngagement(context.Background(), result))
	}

	got, err := sink.EngagementResults(context.Background(), "run-1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("engagement results mismatch (-want +got):\n%s", diff)
	}
}

func TestSinkPersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.db")
	sink, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, sink.RecordPost(context.Background(), domain.PostResult{CorrelationID: "run-1", AccountID: "primary", Outcome: domain.Succeeded()}))
	require.NoError(t, sink.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.PostResults(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.AccountID("primary"), got[0].AccountID)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestSinkRejectsWritesAfterClose(t *testing.T) {
	t.Parallel()

	sink, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	require.ErrorIs(t, sink.RecordPost(context.Background(), domain.PostResult{}), ErrClosed)
	require.ErrorIs(t, sink.RecordEngagement(context.Background(), domain.EngagementResult{}), ErrClosed)
	_, err = sink.PostResults(context.Background(), "run-1")
	require.ErrorIs(t, err, ErrClosed)
}
