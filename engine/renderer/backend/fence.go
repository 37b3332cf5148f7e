package backend

import (
	"context"
)

// Submitted returns the serial of the last frame submitted by EndFrame.
func (b *wgpuBackendImpl) Submitted() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submitted
}

// Completed polls the device without blocking. Once the queue reports empty every submission
// up to the current serial has finished.
func (b *wgpuBackendImpl) Completed() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.completed < b.submitted && b.device.Poll(false, nil) {
		b.completed = b.submitted
	}
	return b.completed
}

// Wait blocks until serial has completed. The device is polled with wait set, which returns
// once every submission made so far is done; ctx is only checked between polls.
func (b *wgpuBackendImpl) Wait(ctx context.Context, serial uint64) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b.mu.Lock()
		// a serial that was never submitted cannot complete
		serial = min(serial, b.submitted)
		if b.completed >= serial || b.device == nil {
			b.mu.Unlock()
			return nil
		}
		target := b.submitted
		b.device.Poll(true, nil)
		b.completed = max(b.completed, target)
		b.mu.Unlock()
	}
}
