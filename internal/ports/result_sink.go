package ports

import (
	"context"

	"github.com/bnema/social-accounts-cli/internal/domain"
)

type ResultSink interface {
	RecordPost(ctx context.Context, result domain.PostResult) error
	RecordEngagement(ctx context.Context, result domain.EngagementResult) error
}

type NopResultSink struct{}

func (NopResultSink) RecordPost(context.Context, domain.PostResult) error { return nil }

func (NopResultSink) RecordEngagement(context.Context, domain.EngagementResult) error { return nil }
