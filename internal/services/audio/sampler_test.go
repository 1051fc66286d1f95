package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
	"time"
)

func pcmSource(t *testing.T, samples []int16) func() (io.ReadCloser, error) {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, samples); err != nil {
		t.Fatalf("failed to encode samples: %v", err)
	}
	data := buf.Bytes()
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func TestSampler_CaptureDecodesPCM(t *testing.T) {
	want := []int16{0, 1, -1, 32767, -32768, 1000, -1000, 42}
	sampler := NewSampler(pcmSource(t, want), len(want), 16000, nil)

	got, err := sampler.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSampler_ShortRead(t *testing.T) {
	sampler := NewSampler(pcmSource(t, []int16{1, 2, 3}), 1024, 16000, nil)

	if _, err := sampler.Capture(context.Background()); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Capture() error = %v, want unexpected EOF", err)
	}
}

func TestSampler_OpenFailure(t *testing.T) {
	boom := errors.New("no device")
	sampler := NewSampler(func() (io.ReadCloser, error) { return nil, boom }, 0, 0, nil)

	if _, err := sampler.Capture(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Capture() error = %v, want %v", err, boom)
	}
}

type blockingReader struct{ unblock chan struct{} }

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.unblock
	return 0, io.EOF
}

func (r *blockingReader) Close() error {
	close(r.unblock)
	return nil
}

func TestSampler_HonoursContext(t *testing.T) {
	sampler := NewSampler(func() (io.ReadCloser, error) {
		return &blockingReader{unblock: make(chan struct{})}, nil
	}, 1024, 16000, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := sampler.Capture(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Capture() error = %v, want deadline exceeded", err)
	}
}

func TestDefaults(t *testing.T) {
	sampler := NewSampler(nil, 0, 0, nil)

	if sampler.Duration() != 64*time.Millisecond {
		t.Errorf("Duration() = %v, want 64ms for 1024 samples at 16 kHz", sampler.Duration())
	}
}

func TestRMS(t *testing.T) {
	tests := []struct {
		name string
		pcm  []int16
		want float64
	}{
		{"empty", nil, 0},
		{"silence", []int16{0, 0, 0}, 0},
		{"square", []int16{100, -100, 100, -100}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RMS(tt.pcm); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RMS() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := LevelDBFS([]int16{math.MaxInt16, -math.MaxInt16}); math.Abs(got) > 1e-9 {
		t.Errorf("LevelDBFS(full scale) = %v, want 0", got)
	}
}
