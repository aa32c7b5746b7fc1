// Package tarpit drip-feeds response bodies to identified scrapers so
// each poisoned page also costs the bot wall-clock time.
package tarpit

import (
	"context"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

// maxChunk bounds the write size per token bucket refill.
const maxChunk = 512

// Limiter throttles response bodies to a fixed byte rate. The rate is
// per response, so each slow-walked connection is independent.
type Limiter struct {
	bps   int
	chunk int
}

// New creates a Limiter writing at bytesPerSec. A rate of zero or less
// disables throttling entirely.
func New(bytesPerSec int) *Limiter {
	chunk := bytesPerSec
	if chunk > maxChunk {
		chunk = maxChunk
	}
	if chunk < 1 {
		chunk = 1
	}
	return &Limiter{bps: bytesPerSec, chunk: chunk}
}

// Enabled reports whether Copy will actually throttle.
func (l *Limiter) Enabled() bool { return l.bps > 0 }

// Copy streams src to dst at the configured rate, flushing after every
// chunk so the bytes trickle onto the wire instead of buffering. The
// first chunk goes out immediately; ctx cancellation aborts the drip.
func (l *Limiter) Copy(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	if !l.Enabled() {
		return io.Copy(dst, src)
	}

	lim := rate.NewLimiter(rate.Limit(l.bps), l.chunk)
	flusher, _ := dst.(http.Flusher)

	buf := make([]byte, l.chunk)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if err := lim.WaitN(ctx, n); err != nil {
				return written, err
			}
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if flusher != nil {
				flusher.Flush()
			}
			if werr != nil {
				return written, werr
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}
