package web

import (
	"context"

	"code.cloudfoundry.org/go-diodes"
)

// frameBuffer is a one-to-one ring of encoded frames. When the reader falls
// behind, the oldest frames are overwritten and onDrop is told how many.
type frameBuffer struct {
	d      *diodes.Poller
	onDrop func(missed int)
}

func newFrameBuffer(ctx context.Context, size int, onDrop func(int)) *frameBuffer {
	b := &frameBuffer{onDrop: onDrop}
	b.d = diodes.NewPoller(
		diodes.NewOneToOne(size, b),
		diodes.WithPollingContext(ctx),
	)
	return b
}

func (b *frameBuffer) Set(frame []byte) {
	b.d.Set(diodes.GenericDataType(&frame))
}

// Next blocks until a frame is available or the buffer's context is done.
func (b *frameBuffer) Next() ([]byte, bool) {
	data := b.d.Next()
	if data == nil {
		return nil, false
	}
	return *(*[]byte)(data), true
}

func (b *frameBuffer) Alert(missed int) {
	if b.onDrop != nil {
		b.onDrop(missed)
	}
}
