package repository

import "context"

// ContentGenerator produces raw model output for a rendered prompt. The
// output is expected to contain a JSON object but is not guaranteed to be
// well-formed; the validation step owns that concern.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Ready() bool
}
