package shortlink_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/shortlink-go/internal/shortlink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChecker reports codes in its set as taken.
type fakeChecker struct {
	taken map[string]bool
	err   error
	calls int
}

func (f *fakeChecker) CodeExists(_ context.Context, code string) (bool, error) {
	f.calls++

	if f.err != nil {
		return false, f.err
	}

	return f.taken[code], nil
}

func staticGenerator(codes ...string) shortlink.CodeGenerator {
	i := 0

	return func() string {
		code := codes[i%len(codes)]
		i++

		return code
	}
}

func TestUniqueResolver_Resolve(t *testing.T) {
	t.Run("returns the first free code", func(t *testing.T) {
		checker := &fakeChecker{taken: map[string]bool{}}
		resolver := shortlink.NewUniqueResolver(checker, staticGenerator("abc123"), 10)

		code, err := resolver.Resolve(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "abc123", code)
		assert.Equal(t, 1, checker.calls)
	})

	t.Run("retries past taken codes", func(t *testing.T) {
		checker := &fakeChecker{taken: map[string]bool{"taken1": true, "taken2": true}}
		resolver := shortlink.NewUniqueResolver(checker, staticGenerator("taken1", "taken2", "free01"), 10)

		code, err := resolver.Resolve(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "free01", code)
		assert.Equal(t, 3, checker.calls)
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		checker := &fakeChecker{taken: map[string]bool{"taken1": true}}
		resolver := shortlink.NewUniqueResolver(checker, staticGenerator("taken1"), 5)

		code, err := resolver.Resolve(context.Background())

		assert.Empty(t, code)
		assert.ErrorIs(t, err, shortlink.ErrGenerationExhausted)
		assert.Equal(t, 5, checker.calls)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		storeErr := errors.New("store unavailable")
		checker := &fakeChecker{err: storeErr}
		resolver := shortlink.NewUniqueResolver(checker, staticGenerator("abc123"), 10)

		_, err := resolver.Resolve(context.Background())

		assert.ErrorIs(t, err, storeErr)
	})
}

func TestUniqueResolver_ResolveCustom(t *testing.T) {
	t.Run("accepts a free code", func(t *testing.T) {
		checker := &fakeChecker{taken: map[string]bool{}}
		resolver := shortlink.NewUniqueResolver(checker, staticGenerator("unused"), 10)

		code, err := resolver.ResolveCustom(context.Background(), "promo1")

		require.NoError(t, err)
		assert.Equal(t, "promo1", code)
	})

	t.Run("rejects a taken code without retrying", func(t *testing.T) {
		checker := &fakeChecker{taken: map[string]bool{"promo1": true}}
		resolver := shortlink.NewUniqueResolver(checker, staticGenerator("unused"), 10)

		code, err := resolver.ResolveCustom(context.Background(), "promo1")

		assert.Empty(t, code)
		assert.ErrorIs(t, err, shortlink.ErrCodeTaken)
		assert.Equal(t, 1, checker.calls)
	})
}
