package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeMemoizesSequentialCalls(t *testing.T) {
	s := NewScope()

	calls := 0
	fn := func() (any, error) {
		calls++
		return "value", nil
	}

	v1, err := s.Do("personalInfo", fn)
	require.NoError(t, err)
	v2, err := s.Do("personalInfo", fn)
	require.NoError(t, err)

	assert.Equal(t, "value", v1)
	assert.Equal(t, "value", v2)
	assert.Equal(t, 1, calls, "same key within one scope fetches once")
}

func TestScopeDistinguishesKeys(t *testing.T) {
	s := NewScope()

	calls := 0
	fn := func() (any, error) {
		calls++
		return calls, nil
	}

	_, _ = s.Do("projects:project", fn)
	_, _ = s.Do("projects:lab", fn)
	assert.Equal(t, 2, calls, "different parameters are different cache keys")
}

func TestScopeMemoizesErrors(t *testing.T) {
	s := NewScope()

	boom := errors.New("store down")
	calls := 0
	fn := func() (any, error) {
		calls++
		return nil, boom
	}

	_, err1 := s.Do("about", fn)
	_, err2 := s.Do("about", fn)

	assert.ErrorIs(t, err1, boom)
	assert.ErrorIs(t, err2, boom)
	assert.Equal(t, 1, calls, "first outcome is the outcome for the whole render")
}

func TestScopeCollapsesConcurrentCalls(t *testing.T) {
	s := NewScope()

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func() (any, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]any, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.Do("resume", fn)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers share one in-flight fetch")
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestScopeFromContext(t *testing.T) {
	assert.Nil(t, ScopeFrom(context.Background()))

	ctx := WithScope(context.Background())
	s := ScopeFrom(ctx)
	require.NotNil(t, s)

	// Separate contexts carry separate scopes.
	other := ScopeFrom(WithScope(context.Background()))
	assert.NotSame(t, s, other)
}
