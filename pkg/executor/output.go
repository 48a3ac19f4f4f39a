package executor

import (
	"bytes"
	"sync"
)

// cappedBuffer keeps at most limit bytes. The first write past the limit
// calls onOverflow once; later bytes are dropped but still reported as
// written so the child never blocks on a full pipe before it is killed.
type cappedBuffer struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	limit      int64
	overflowed bool
	onOverflow func()
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.limit - int64(b.buf.Len())
	if int64(len(p)) <= room {
		return b.buf.Write(p)
	}

	if room > 0 {
		b.buf.Write(p[:room])
	}

	if !b.overflowed {
		b.overflowed = true
		if b.onOverflow != nil {
			b.onOverflow()
		}
	}

	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func (b *cappedBuffer) Overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.overflowed
}
