package shortlink

import (
	"context"
	"fmt"
)

// DefaultMaxAttempts is the retry budget for finding a free code.
const DefaultMaxAttempts = 10

// CodeChecker is the subset of the repository the resolver needs.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// UniqueResolver finds free short codes by optimistic draw-and-check.
// Codes are independent random draws, so no reservation step is needed;
// at a 62^6 keyspace the odds of exhausting the budget are negligible
// until the keyspace is under real pressure.
type UniqueResolver struct {
	store       CodeChecker
	generate    CodeGenerator
	maxAttempts int
}

// NewUniqueResolver creates a resolver. maxAttempts values below 1 fall
// back to DefaultMaxAttempts.
func NewUniqueResolver(store CodeChecker, generate CodeGenerator, maxAttempts int) *UniqueResolver {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	return &UniqueResolver{
		store:       store,
		generate:    generate,
		maxAttempts: maxAttempts,
	}
}

// Resolve returns a code not currently used by any record. It returns
// ErrGenerationExhausted once the retry budget runs out.
func (r *UniqueResolver) Resolve(ctx context.Context) (string, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		candidate := r.generate()

		taken, err := r.store.CodeExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking code availability: %w", err)
		}

		if !taken {
			return candidate, nil
		}
	}

	return "", ErrGenerationExhausted
}

// ResolveCustom checks a caller-supplied code with a single existence
// check, no retries. It returns ErrCodeTaken if the code is in use.
func (r *UniqueResolver) ResolveCustom(ctx context.Context, code string) (string, error) {
	taken, err := r.store.CodeExists(ctx, code)
	if err != nil {
		return "", fmt.Errorf("checking code availability: %w", err)
	}

	if taken {
		return "", ErrCodeTaken
	}

	return code, nil
}
