package transcode

import (
	"context"
	"runtime"

	"github.com/tendant/folklorico-media/pkg/dancemedia"
	"golang.org/x/sync/semaphore"
)

// Pool bounds how many transcodes run at once. Callers block until a slot is
// free or their context ends.
type Pool struct {
	next dancemedia.Transcoder
	sem  *semaphore.Weighted
	size int
}

// NewPool wraps next. workers <= 0 means one slot per GOMAXPROCS.
func NewPool(next dancemedia.Transcoder, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		next: next,
		sem:  semaphore.NewWeighted(int64(workers)),
		size: workers,
	}
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

func (p *Pool) Thumbnail(ctx context.Context, inputPath string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)
	return p.next.Thumbnail(ctx, inputPath)
}

func (p *Pool) Transcode(ctx context.Context, inputPath string, category dancemedia.Category) (string, string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", "", err
	}
	defer p.sem.Release(1)
	return p.next.Transcode(ctx, inputPath, category)
}

var _ dancemedia.Transcoder = (*Pool)(nil)
