// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// fakeMP3 serves pcm as go-mp3 would: 16-bit little-endian stereo.
type fakeMP3 struct {
	r   *bytes.Reader
	err error // returned instead of io.EOF when set
}

func newFakeMP3(frames [][2]int16) *fakeMP3 {
	var buf bytes.Buffer
	for _, f := range frames {
		_ = binary.Write(&buf, binary.LittleEndian, f)
	}
	return &fakeMP3{r: bytes.NewReader(buf.Bytes())}
}

func (f *fakeMP3) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err == io.EOF && f.err != nil {
		return n, f.err
	}
	return n, err
}

func (f *fakeMP3) Seek(offset int64, whence int) (int64, error) { return f.r.Seek(offset, whence) }
func (f *fakeMP3) Length() int64                                { return f.r.Size() }
func (f *fakeMP3) SampleRate() int                              { return 44100 }

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	s := &source{dec: newFakeMP3([][2]int16{{16384, -16384}, {0, 32767}, {-32768, 8192}}), sampleRate: 44100}

	buf := make([]float32, 4)
	n, err := s.ReadSamples(buf)
	if err != nil || n != 4 {
		t.Fatalf("ReadSamples() = %d, %v; want 4, nil", n, err)
	}
	want := []float32{0.5, -0.5, 0, 32767.0 / 32768}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, buf[i], want[i])
		}
	}

	n, err = s.ReadSamples(buf)
	if n != 2 || err != io.EOF {
		t.Fatalf("last ReadSamples() = %d, %v; want 2, io.EOF", n, err)
	}
	if buf[0] != -1 || buf[1] != 0.25 {
		t.Errorf("last frame = %v, want [-1 0.25]", buf[:2])
	}
}

func TestSource_SeekAndLength(t *testing.T) {
	t.Parallel()

	frames := make([][2]int16, 100)
	for i := range frames {
		frames[i] = [2]int16{int16(i), int16(i)}
	}
	s := &source{dec: newFakeMP3(frames), sampleRate: 44100}

	if s.Frames() != 100 {
		t.Errorf("Frames() = %d, want 100", s.Frames())
	}
	if err := s.SeekFrame(90); err != nil {
		t.Fatalf("SeekFrame() error = %v", err)
	}
	buf := make([]float32, 2)
	if _, err := s.ReadSamples(buf); err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if buf[0] != 90.0/32768 {
		t.Errorf("sample after seek = %v, want %v", buf[0], 90.0/32768)
	}
}

func TestSource_ReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broken frame")
	fake := newFakeMP3(nil)
	fake.err = boom
	s := &source{dec: fake, sampleRate: 44100}

	if _, err := s.ReadSamples(make([]float32, 2)); !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
}

func TestDecoder_Sniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header []byte
		want   bool
	}{
		{[]byte("ID3\x03\x00"), true},
		{[]byte{0xFF, 0xFB, 0x90}, true},
		{[]byte{0xFF, 0xF3}, true},
		{[]byte{0xFF, 0x00}, false},
		{[]byte("RIFF"), false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := (Decoder{}).Sniff(tt.header); got != tt.want {
			t.Errorf("Sniff(%x) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestDecoder_Garbage(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(bytes.NewReader(nil)); err == nil {
		t.Error("Decode(empty) should fail")
	}
}
