package transcode

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

// slowTranscoder tracks how many calls run at once.
type slowTranscoder struct {
	running atomic.Int32
	peak    atomic.Int32
	release chan struct{}
}

func (s *slowTranscoder) enter() {
	n := s.running.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-s.release
	s.running.Add(-1)
}

func (s *slowTranscoder) Thumbnail(ctx context.Context, in string) (string, error) {
	s.enter()
	return in + ".jpg", nil
}

func (s *slowTranscoder) Transcode(ctx context.Context, in string, c dancemedia.Category) (string, string, error) {
	s.enter()
	return in + ".mp4", "video/mp4", nil
}

func TestPoolBoundsConcurrency(t *testing.T) {
	inner := &slowTranscoder{release: make(chan struct{})}
	pool := NewPool(inner, 2)
	assert.Equal(t, 2, pool.Size())

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, err := pool.Thumbnail(context.Background(), "in")
				assert.NoError(t, err)
			} else {
				_, _, err := pool.Transcode(context.Background(), "in", dancemedia.CategoryVideo)
				assert.NoError(t, err)
			}
		}(i)
	}

	require.Eventually(t, func() bool { return inner.running.Load() == 2 }, time.Second, 5*time.Millisecond)
	for i := 0; i < 6; i++ {
		inner.release <- struct{}{}
	}
	wg.Wait()

	assert.Equal(t, int32(2), inner.peak.Load())
}

func TestPoolHonorsContext(t *testing.T) {
	inner := &slowTranscoder{release: make(chan struct{})}
	pool := NewPool(inner, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = pool.Thumbnail(context.Background(), "busy")
	}()
	require.Eventually(t, func() bool { return inner.running.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := pool.Transcode(ctx, "waiting", dancemedia.CategoryAudio)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	inner.release <- struct{}{}
	<-done
}

func TestPoolDefaultSize(t *testing.T) {
	assert.GreaterOrEqual(t, NewPool(&slowTranscoder{}, 0).Size(), 1)
}
