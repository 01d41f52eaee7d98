// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds generated sources, a decoder for them and
// on-disk fixtures shared by the package tests.
package audiotest

import (
	"io"
	"math"
)

// MockSource is a test helper that generates audio data for testing.
// It implements audio.Source, audio.FrameSeeker and audio.Lengther.
type MockSource struct {
	sampleRate   int
	channels     int
	totalSamples int // Total samples to generate (per channel)
	generated    int // Samples generated so far (per channel)
	waveform     func(sample int, channel int) float32

	faults   map[int]error // frame position -> error returned once there
	closed   bool
	noLength bool
}

// NewMockSource creates a new mock audio source.
// totalSamples is the total number of samples per channel to generate.
// waveform is a function that generates sample values given sample index and channel.
func NewMockSource(sampleRate, channels, totalSamples int, waveform func(sample int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:   sampleRate,
		channels:     channels,
		totalSamples: totalSamples,
		waveform:     waveform,
		faults:       make(map[int]error),
	}
}

// NewSilentSource creates a mock source that generates silence (all zeros).
func NewSilentSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewConstantSource(sampleRate, channels, totalSamples, 0)
}

// NewSineSource creates a mock source that generates a sine wave.
func NewSineSource(sampleRate, channels, totalSamples int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		t := float64(sample) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

// NewConstantSource creates a mock source with constant value.
func NewConstantSource(sampleRate, channels, totalSamples int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(int, int) float32 {
		return value
	})
}

// NewRampSource yields frame index i as i/total on every channel, so a
// sample's value tells where it came from.
func NewRampSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, _ int) float32 {
		return float32(sample) / float32(totalSamples)
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }
func (m *MockSource) Position() int   { return m.generated }
func (m *MockSource) Closed() bool    { return m.closed }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Frames reports the total length unless WithoutLength was called.
func (m *MockSource) Frames() int64 {
	if m.noLength {
		return 0
	}
	return int64(m.totalSamples)
}

// WithoutLength hides the length, like a stream with no duration header.
func (m *MockSource) WithoutLength() *MockSource {
	m.noLength = true
	return m
}

// FailAt makes the read that starts at frame return err, once, with no
// samples.
func (m *MockSource) FailAt(frame int, err error) *MockSource {
	m.faults[frame] = err
	return m
}

// Reset resets the generated sample counter to allow re-reading
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) SeekFrame(frame int64) error {
	if frame < 0 || frame > int64(m.totalSamples) {
		return io.ErrUnexpectedEOF
	}
	m.generated = int(frame)
	return nil
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if err, ok := m.faults[m.generated]; ok {
		delete(m.faults, m.generated)
		return 0, err
	}
	if m.generated >= m.totalSamples {
		return 0, io.EOF
	}

	framesToWrite := min(len(dst)/m.channels, m.totalSamples-m.generated)
	// stop short of the next fault so it fires at its exact frame
	for f := range m.faults {
		if f > m.generated && f < m.generated+framesToWrite {
			framesToWrite = f - m.generated
		}
	}

	for frame := range framesToWrite {
		sampleIndex := m.generated + frame
		for ch := range m.channels {
			dst[frame*m.channels+ch] = m.waveform(sampleIndex, ch)
		}
	}

	m.generated += framesToWrite
	samplesWritten := framesToWrite * m.channels

	if m.generated >= m.totalSamples {
		return samplesWritten, io.EOF
	}

	return samplesWritten, nil
}
