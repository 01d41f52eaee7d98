// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
)

// mockSource generates frames from waveform and can seek.
type mockSource struct {
	sampleRate   int
	channels     int
	totalSamples int // per channel
	generated    int
	waveform     func(sample int, channel int) float32
}

func newMockSource(sampleRate, channels, totalSamples int, waveform func(sample int, channel int) float32) *mockSource {
	return &mockSource{
		sampleRate:   sampleRate,
		channels:     channels,
		totalSamples: totalSamples,
		waveform:     waveform,
	}
}

func newConstantSource(sampleRate, channels, totalSamples int, value float32) *mockSource {
	return newMockSource(sampleRate, channels, totalSamples, func(int, int) float32 { return value })
}

// newRampSource yields frame/total on every channel.
func newRampSource(sampleRate, channels, totalSamples int) *mockSource {
	return newMockSource(sampleRate, channels, totalSamples, func(sample int, _ int) float32 {
		return float32(sample) / float32(totalSamples)
	})
}

func (m *mockSource) SampleRate() int { return m.sampleRate }
func (m *mockSource) Channels() int   { return m.channels }
func (m *mockSource) BufSize() int    { return 4096 }
func (m *mockSource) Close() error    { return nil }
func (m *mockSource) Frames() int64   { return int64(m.totalSamples) }

func (m *mockSource) SeekFrame(frame int64) error {
	if frame < 0 || frame > int64(m.totalSamples) {
		return io.ErrUnexpectedEOF
	}
	m.generated = int(frame)
	return nil
}

func (m *mockSource) ReadSamples(dst []float32) (int, error) {
	if m.generated >= m.totalSamples {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.totalSamples-m.generated)
	for f := range frames {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.generated+f, ch)
		}
	}
	m.generated += frames

	if m.generated >= m.totalSamples {
		return frames * m.channels, io.EOF
	}
	return frames * m.channels, nil
}

// plainSource hides the seek and length methods of its embedded source.
type plainSource struct {
	src Source
}

func (p plainSource) SampleRate() int                        { return p.src.SampleRate() }
func (p plainSource) Channels() int                          { return p.src.Channels() }
func (p plainSource) BufSize() int                           { return p.src.BufSize() }
func (p plainSource) Close() error                           { return p.src.Close() }
func (p plainSource) ReadSamples(dst []float32) (int, error) { return p.src.ReadSamples(dst) }

var errClose = errors.New("close failed")

type failingCloseSource struct{ *mockSource }

func (failingCloseSource) Close() error { return errClose }

// readAll drains src in chunks of chunk samples.
func readAll(src Source, chunk int) ([]float32, error) {
	var out []float32
	buf := make([]float32, chunk)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if n == 0 {
			return out, io.ErrNoProgress
		}
	}
}
