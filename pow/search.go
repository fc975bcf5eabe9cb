/*
File Name:  search.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

Parallel nonce search: the nonce space is partitioned across poolSize workers,
worker k trying nonce = k, k+poolSize, k+2*poolSize, .... First hit wins and
cancels the rest; workers never share mutable state, they only race to send on
a one-shot result channel guarded by the group's context.
*/

package pow

import (
	"context"
	"errors"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrCancelled is returned when the search's context is cancelled before a
// valid nonce is found.
var ErrCancelled = errors.New("pow: search cancelled")

// ErrNonceSpaceExhausted is returned when a worker runs off the end of the
// nonce space (u32 max, or u64 max in native mode) without success.
var ErrNonceSpaceExhausted = errors.New("pow: nonce space exhausted")

const (
	maxNonceDefault = 1<<32 - 1
	maxNonceNative  = 1<<64 - 1
)

// SearchOptions configures Search. PoolSize defaults to runtime.NumCPU() when
// zero or negative. Native widens the search range to the full uint64 space.
// Log, if non-nil, receives worker-pool start/stop diagnostics; it is
// optional and defaults to a no-op logger.
type SearchOptions struct {
	PoolSize int
	Native   bool
	Log      *zap.Logger
}

// Search finds a nonce n such that Check(n, target, initialHash) is true,
// splitting the work across a pool of goroutines; it returns the first hit
// reported by any worker, not necessarily the smallest passing nonce. It
// returns ErrCancelled if ctx is done first, or ErrNonceSpaceExhausted once a
// worker runs out of nonces to try (which stops the other workers).
func Search(ctx context.Context, target uint64, initialHash [64]byte, opts SearchOptions) (uint64, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
	}

	maxNonce := uint64(maxNonceDefault)
	if opts.Native {
		maxNonce = maxNonceNative
	}

	log.Debug("pow search starting", zap.Int("pool_size", poolSize), zap.Uint64("target", target))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	found := make(chan uint64, 1)
	g, ctx := errgroup.WithContext(ctx)

	for k := 0; k < poolSize; k++ {
		k := uint64(k)
		g.Go(func() error {
			for nonce := k; nonce <= maxNonce; nonce += uint64(poolSize) {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				if Check(nonce, target, initialHash) {
					select {
					case found <- nonce:
						cancel()
					default:
					}
					return nil
				}
			}
			return ErrNonceSpaceExhausted
		})
	}

	waitErr := g.Wait()

	select {
	case nonce := <-found:
		log.Debug("pow search found nonce", zap.Uint64("nonce", nonce))
		return nonce, nil
	default:
	}

	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		log.Debug("pow search exhausted", zap.Error(waitErr))
		return 0, waitErr
	}
	log.Debug("pow search cancelled")
	return 0, ErrCancelled
}
