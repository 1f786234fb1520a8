package ports

import "context"

type ContentGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
