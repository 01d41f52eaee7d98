// SPDX-License-Identifier: EPL-2.0

package aiff_test

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/musa/audio"
	"github.com/ik5/musa/formats/aiff"
	"github.com/ik5/musa/internal/audiotest"
	"github.com/spf13/afero"
)

func TestDecoder_Sniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   bool
	}{
		{"FORM\x00\x00\x00\x00AIFF", true},
		{"FORM\x00\x00\x00\x00AIFC", true},
		{"FORM\x00\x00\x00\x00ILBM", false},
		{"RIFF\x00\x00\x00\x00WAVE", false},
		{"FORM", false},
	}

	for _, tt := range tests {
		if got := (aiff.Decoder{}).Sniff([]byte(tt.header)); got != tt.want {
			t.Errorf("Sniff(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestDecoder_Decode(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	samples := audiotest.Stereo(audiotest.Constant(500, 1, 0.5), audiotest.Constant(500, 1, -0.5))
	if err := audiotest.WriteAIFFFile(fs, "/tone.aiff", 16000, 2, samples); err != nil {
		t.Fatalf("WriteAIFFFile() error = %v", err)
	}
	f, err := fs.Open("/tone.aiff")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	src, err := aiff.Decoder{}.Decode(f)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != 16000 || src.Channels() != 2 {
		t.Fatalf("format = %d Hz x%d, want 16000 Hz x2", src.SampleRate(), src.Channels())
	}
	if l, ok := src.(audio.Lengther); !ok || l.Frames() != 500 {
		t.Errorf("Frames() mismatch, want 500")
	}

	var got []float32
	buf := make([]float32, 256)
	for {
		n, err := src.ReadSamples(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i := range got {
		if math.Abs(float64(got[i]-samples[i])) > 1.0/16384 {
			t.Fatalf("sample %d = %v, want %v", i, got[i], samples[i])
		}
	}
}

func TestDecoder_NotAiff(t *testing.T) {
	t.Parallel()

	_, err := aiff.Decoder{}.Decode(bytes.NewReader(audiotest.WAV(8000, 1, audiotest.Constant(10, 1, 0))))
	if !errors.Is(err, aiff.ErrNotAiffFile) {
		t.Errorf("Decode(wav) error = %v, want ErrNotAiffFile", err)
	}
}

func TestDecoder_OverstatedLength(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	if err := audiotest.WriteAIFFFile(fs, "/rec.aiff", 8000, 1, audiotest.Constant(800, 1, 0.5)); err != nil {
		t.Fatal(err)
	}
	if err := audiotest.OverstateAIFFFrames(fs, "/rec.aiff", 0x7FFFFFFF); err != nil {
		t.Fatal(err)
	}
	f, err := fs.Open("/rec.aiff")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	src, err := aiff.Decoder{}.Decode(f)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	// the bound is the file size, headers included
	if got := src.(audio.Lengther).Frames(); got < 800 || got > 900 {
		t.Errorf("Frames() = %d, want about 800", got)
	}

	if err := src.(audio.FrameSeeker).SeekFrame(100000); !errors.Is(err, audio.ErrSeekOutOfRange) {
		t.Errorf("SeekFrame(100000) error = %v, want ErrSeekOutOfRange", err)
	}
}
