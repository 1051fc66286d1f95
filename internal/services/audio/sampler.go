// Package audio captures short fixed-length 16-bit PCM samples.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

const (
	DefaultSamples    = 1024
	DefaultSampleRate = 16000
)

// Logger is the leveled logger used by the sampler.
type Logger interface {
	Info(format string, v ...interface{})
}

// Sampler reads little-endian signed 16-bit mono PCM from a source that is
// opened for every capture.
type Sampler struct {
	open    func() (io.ReadCloser, error)
	samples int
	rate    int
	logger  Logger
}

// NewDeviceSampler reads from a character device or FIFO such as the output
// of a capture daemon.
func NewDeviceSampler(path string, samples, rate int, logger Logger) *Sampler {
	return NewSampler(func() (io.ReadCloser, error) { return os.Open(path) }, samples, rate, logger)
}

func NewSampler(open func() (io.ReadCloser, error), samples, rate int, logger Logger) *Sampler {
	if samples <= 0 {
		samples = DefaultSamples
	}
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Sampler{open: open, samples: samples, rate: rate, logger: logger}
}

// Duration is the span of audio one capture covers.
func (s *Sampler) Duration() time.Duration {
	return time.Duration(s.samples) * time.Second / time.Duration(s.rate)
}

// Capture reads exactly one block of samples. It gives up after twice the
// block duration plus one second, or when ctx is done.
func (s *Sampler) Capture(ctx context.Context) ([]int16, error) {
	src, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open audio source: %w", err)
	}
	defer src.Close()

	type readResult struct {
		raw []byte
		err error
	}
	done := make(chan readResult, 1)
	go func() {
		raw := make([]byte, s.samples*2)
		_, err := io.ReadFull(src, raw)
		done <- readResult{raw: raw, err: err}
	}()

	timer := time.NewTimer(2*s.Duration() + time.Second)
	defer timer.Stop()

	var res readResult
	select {
	case res = <-done:
	case <-timer.C:
		return nil, fmt.Errorf("audio capture timed out after %v", 2*s.Duration()+time.Second)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, fmt.Errorf("failed to read %d audio samples: %w", s.samples, res.err)
	}

	pcm := make([]int16, s.samples)
	if err := binary.Read(bytes.NewReader(res.raw), binary.LittleEndian, pcm); err != nil {
		return nil, fmt.Errorf("failed to decode audio samples: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Audio captured: %d samples @ %d Hz, level %.1f dBFS", len(pcm), s.rate, LevelDBFS(pcm))
	}
	return pcm, nil
}

// RMS returns the root mean square amplitude of the samples.
func RMS(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, v := range pcm {
		f := float64(v)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(pcm)))
}

// LevelDBFS is the RMS level relative to full scale. Silence is -Inf.
func LevelDBFS(pcm []int16) float64 {
	return 20 * math.Log10(RMS(pcm)/math.MaxInt16)
}
