package tarpit

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestNew_ChunkClamping(t *testing.T) {
	tests := []struct {
		bps   int
		chunk int
	}{
		{0, 1},
		{-5, 1},
		{100, 100},
		{512, 512},
		{4096, 512},
	}
	for _, tt := range tests {
		l := New(tt.bps)
		if l.chunk != tt.chunk {
			t.Errorf("New(%d).chunk = %d, want %d", tt.bps, l.chunk, tt.chunk)
		}
	}
}

func TestEnabled(t *testing.T) {
	if New(0).Enabled() {
		t.Error("zero rate should disable the tarpit")
	}
	if New(-1).Enabled() {
		t.Error("negative rate should disable the tarpit")
	}
	if !New(256).Enabled() {
		t.Error("positive rate should enable the tarpit")
	}
}

func TestCopy_DisabledPassesThrough(t *testing.T) {
	l := New(0)
	var dst bytes.Buffer
	payload := strings.Repeat("x", 10_000)

	n, err := l.Copy(context.Background(), &dst, strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != int64(len(payload)) || dst.String() != payload {
		t.Errorf("wrote %d bytes, payload intact = %v", n, dst.String() == payload)
	}
}

func TestCopy_ThrottledPreservesBytes(t *testing.T) {
	// A high rate keeps the test fast; the copy path is the same.
	l := New(1 << 20)
	var dst bytes.Buffer
	payload := strings.Repeat("gossamer ", 2000)

	n, err := l.Copy(context.Background(), &dst, strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("wrote %d of %d bytes", n, len(payload))
	}
	if dst.String() != payload {
		t.Error("throttled copy corrupted the payload")
	}
}

func TestCopy_SlowRateTakesTime(t *testing.T) {
	// 64 bytes at 64 B/s: the first chunk is instant, the second waits
	// for the bucket to refill.
	l := New(64)
	var dst bytes.Buffer
	payload := strings.Repeat("y", 128)

	start := time.Now()
	if _, err := l.Copy(context.Background(), &dst, strings.NewReader(payload)); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("128 bytes at 64 B/s finished in %v", elapsed)
	}
	if dst.Len() != len(payload) {
		t.Errorf("wrote %d of %d bytes", dst.Len(), len(payload))
	}
}

func TestCopy_ContextCancelAborts(t *testing.T) {
	l := New(16)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var dst bytes.Buffer
	payload := strings.Repeat("z", 1024)

	_, err := l.Copy(ctx, &dst, strings.NewReader(payload))
	if err == nil {
		t.Fatal("expected an error when the context expires mid-copy")
	}
	if dst.Len() >= len(payload) {
		t.Error("the whole payload went out despite cancellation")
	}
}
