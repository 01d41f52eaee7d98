// SPDX-License-Identifier: EPL-2.0

package pipeline_test

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/musa/audio"
	"github.com/ik5/musa/internal/audiotest"
	"github.com/ik5/musa/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
)

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

// mockFs returns a filesystem holding /a.mock and a registry whose only
// decoder builds sources with newSrc.
func mockFs(t *testing.T, newSrc func() *audiotest.MockSource) (afero.Fs, *audio.Registry, *audiotest.Decoder) {
	t.Helper()

	fs := afero.NewMemMapFs()
	if err := audiotest.WriteMockFile(fs, "/a.mock"); err != nil {
		t.Fatal(err)
	}
	dec := &audiotest.Decoder{New: newSrc}
	reg := audio.NewRegistry()
	reg.Register("mock", dec, "mock")
	return fs, reg, dec
}

func drain(t *testing.T, p *pipeline.Pipeline) (frames int64) {
	t.Helper()

	for {
		pkt, err := p.NextPacket()
		if errors.Is(err, io.EOF) {
			return frames
		}
		if err != nil {
			t.Fatalf("NextPacket() error = %v", err)
		}
		if pkt.TS != frames {
			t.Fatalf("packet TS = %d, want %d", pkt.TS, frames)
		}
		frames += int64(len(pkt.Samples) / p.Channels())
	}
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/notes.txt", []byte("just some text, no audio here"), 0o644)
	_ = afero.WriteFile(fs, "/empty.wav", nil, 0o644)
	_ = audiotest.WriteMockFile(fs, "/a.mock")

	reject := func(cause error) *audio.Registry {
		reg := audio.NewRegistry()
		reg.Register("mock", &audiotest.Decoder{Reject: cause}, "mock")
		return reg
	}
	badFormat := audio.NewRegistry()
	badFormat.Register("mock", &audiotest.Decoder{New: func() *audiotest.MockSource {
		return audiotest.NewSilentSource(8000, 0, 10)
	}})

	tests := []struct {
		name string
		path string
		reg  *audio.Registry
		want error
	}{
		{"missing", "/nope.wav", nil, pipeline.ErrNotFound},
		{"text", "/notes.txt", nil, pipeline.ErrFormatUnsupported},
		{"empty", "/empty.wav", nil, pipeline.ErrFormatUnsupported},
		{"no track", "/a.mock", reject(audio.ErrNoTrack), pipeline.ErrNoDecodableTrack},
		{"rejected", "/a.mock", reject(errors.New("bad header")), pipeline.ErrDecoderUnsupported},
		{"zero channels", "/a.mock", badFormat, pipeline.ErrFormatUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := pipeline.Open(tt.path, pipeline.Options{Fs: fs, Registry: tt.reg, Logger: quietLogger()})
			if !errors.Is(err, tt.want) {
				t.Errorf("Open(%q) error = %v, want %v", tt.path, err, tt.want)
			}
		})
	}
}

// brokenFs fails every read after the first one on files it opens.
type brokenFs struct{ afero.Fs }

type brokenFile struct {
	afero.File
	reads int
}

var errDisk = errors.New("disk on fire")

func (b brokenFs) Open(name string) (afero.File, error) {
	f, err := b.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	return &brokenFile{File: f}, nil
}

func (b *brokenFile) Read(p []byte) (int, error) {
	b.reads++
	if b.reads > 1 {
		return 0, errDisk
	}
	return b.File.Read(p)
}

func TestOpen_IOError(t *testing.T) {
	t.Parallel()

	fs, reg, _ := mockFs(t, func() *audiotest.MockSource { return audiotest.NewSilentSource(8000, 1, 10) })
	_, err := pipeline.Open("/a.mock", pipeline.Options{Fs: brokenFs{fs}, Registry: reg, Logger: quietLogger()})
	if !errors.Is(err, pipeline.ErrIO) || !errors.Is(err, errDisk) {
		t.Errorf("Open() error = %v, want ErrIO wrapping %v", err, errDisk)
	}
}

func TestPipeline_WAV(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	if err := audiotest.WriteWAVFile(fs, "/tone.wav", 8000, 1, audiotest.Constant(2500, 1, 0.5)); err != nil {
		t.Fatal(err)
	}

	p, err := pipeline.Open("/tone.wav", pipeline.Options{Fs: fs, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer p.Close()

	tr := p.Track()
	if tr.Format != "wav" || tr.SampleRate != 8000 || tr.Channels != 1 || tr.Frames != 2500 {
		t.Errorf("Track() = %+v", tr)
	}
	if got := drain(t, p); got != 2500 {
		t.Errorf("decoded %d frames, want 2500", got)
	}
	if _, err := p.NextPacket(); !errors.Is(err, io.EOF) {
		t.Errorf("NextPacket() after end error = %v, want io.EOF", err)
	}
}

func TestPipeline_OutputFormat(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	if err := audiotest.WriteWAVFile(fs, "/mono.wav", 22050, 1, audiotest.Constant(2205, 1, 0.25)); err != nil {
		t.Fatal(err)
	}

	p, err := pipeline.Open("/mono.wav", pipeline.Options{
		Fs: fs, SampleRate: 44100, Channels: 2, PacketFrames: 512, Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer p.Close()

	if p.SampleRate() != 44100 || p.Channels() != 2 {
		t.Fatalf("output format = %d Hz x%d, want 44100 Hz x2", p.SampleRate(), p.Channels())
	}
	if p.Frames() != 4410 {
		t.Errorf("Frames() = %d, want 4410", p.Frames())
	}

	pkt, err := p.NextPacket()
	if err != nil {
		t.Fatalf("NextPacket() error = %v", err)
	}
	if len(pkt.Samples) != 1024 {
		t.Errorf("packet holds %d samples, want 1024", len(pkt.Samples))
	}
	for i, v := range pkt.Samples {
		if math.Abs(float64(v-0.25)) > 1e-3 {
			t.Fatalf("sample %d = %v, want 0.25", i, v)
		}
	}

	total := int64(len(pkt.Samples)/2) + drainFrom(t, p)
	if total < 4408 || total > 4412 {
		t.Errorf("decoded %d frames, want about 4410", total)
	}
}

func drainFrom(t *testing.T, p *pipeline.Pipeline) int64 {
	t.Helper()

	start := p.Position()
	var n int64
	for {
		pkt, err := p.NextPacket()
		if errors.Is(err, io.EOF) {
			return n
		}
		if err != nil {
			t.Fatalf("NextPacket() error = %v", err)
		}
		if pkt.TS != start+n {
			t.Fatalf("packet TS = %d, want %d", pkt.TS, start+n)
		}
		n += int64(len(pkt.Samples) / p.Channels())
	}
}

func TestPipeline_Seek(t *testing.T) {
	t.Parallel()

	fs, reg, _ := mockFs(t, func() *audiotest.MockSource { return audiotest.NewRampSource(1000, 1, 4000) })
	p, err := pipeline.Open("/a.mock", pipeline.Options{Fs: fs, Registry: reg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer p.Close()

	_ = drain(t, p)
	if err := p.SeekFrame(1000); err != nil {
		t.Fatalf("SeekFrame() error = %v", err)
	}
	pkt, err := p.NextPacket()
	if err != nil {
		t.Fatalf("NextPacket() after seek error = %v", err)
	}
	if pkt.TS != 1000 || pkt.Samples[0] != 0.25 {
		t.Errorf("packet after seek: TS %d first %v, want TS 1000 first 0.25", pkt.TS, pkt.Samples[0])
	}

	if err := p.SeekFrame(-1); !errors.Is(err, pipeline.ErrSeekFailed) {
		t.Errorf("SeekFrame(-1) error = %v, want ErrSeekFailed", err)
	}
	if err := p.SeekFrame(10000); !errors.Is(err, pipeline.ErrSeekFailed) {
		t.Errorf("SeekFrame(past end) error = %v, want ErrSeekFailed", err)
	}
}

func TestPipeline_SeekPastEndKeepsPosition(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	if err := audiotest.WriteWAVFile(fs, "/tone.wav", 8000, 1, audiotest.Constant(2500, 1, 0.5)); err != nil {
		t.Fatal(err)
	}
	p, err := pipeline.Open("/tone.wav", pipeline.Options{Fs: fs, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer p.Close()

	if _, err := p.NextPacket(); err != nil {
		t.Fatal(err)
	}
	if err := p.SeekFrame(1_000_000); !errors.Is(err, pipeline.ErrSeekFailed) || !errors.Is(err, audio.ErrSeekOutOfRange) {
		t.Fatalf("SeekFrame(past end) error = %v, want ErrSeekFailed", err)
	}

	pkt, err := p.NextPacket()
	if err != nil {
		t.Fatalf("NextPacket() after failed seek error = %v", err)
	}
	if pkt.TS != pipeline.DefaultPacketFrames {
		t.Errorf("packet TS = %d, want %d", pkt.TS, pipeline.DefaultPacketFrames)
	}
}

func TestPipeline_DecodeErrorIsSkippable(t *testing.T) {
	t.Parallel()

	fs, reg, _ := mockFs(t, func() *audiotest.MockSource {
		return audiotest.NewRampSource(1000, 1, 3000).FailAt(1024, errors.New("corrupt frame"))
	})
	p, err := pipeline.Open("/a.mock", pipeline.Options{Fs: fs, Registry: reg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer p.Close()

	if _, err := p.NextPacket(); err != nil {
		t.Fatalf("first NextPacket() error = %v", err)
	}
	if _, err := p.NextPacket(); !errors.Is(err, audio.ErrDecode) {
		t.Fatalf("second NextPacket() error = %v, want audio.ErrDecode", err)
	}
	pkt, err := p.NextPacket()
	if err != nil || pkt.TS != 1024 {
		t.Fatalf("NextPacket() after decode error = TS %d, %v; want TS 1024", pkt.TS, err)
	}
}

func TestPipeline_ResetRequired(t *testing.T) {
	t.Parallel()

	calls := 0
	fs, reg, dec := mockFs(t, func() *audiotest.MockSource {
		calls++
		src := audiotest.NewRampSource(1000, 1, 4096)
		if calls == 1 {
			src.FailAt(2048, audio.ErrResetRequired)
		}
		return src
	})
	p, err := pipeline.Open("/a.mock", pipeline.Options{Fs: fs, Registry: reg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer p.Close()

	for range 2 {
		if _, err := p.NextPacket(); err != nil {
			t.Fatalf("NextPacket() error = %v", err)
		}
	}
	pkt, err := p.NextPacket()
	if err != nil {
		t.Fatalf("NextPacket() across reset error = %v", err)
	}
	if dec.Decodes() != 2 {
		t.Errorf("decoder built %d times, want 2", dec.Decodes())
	}
	if pkt.TS != 2048 || pkt.Samples[0] != 0.5 {
		t.Errorf("packet after reset: TS %d first %v, want TS 2048 first 0.5", pkt.TS, pkt.Samples[0])
	}
}

func TestPipeline_Close(t *testing.T) {
	t.Parallel()

	fs, reg, dec := mockFs(t, func() *audiotest.MockSource { return audiotest.NewSilentSource(8000, 2, 100) })
	p, err := pipeline.Open("/a.mock", pipeline.Options{Fs: fs, Registry: reg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !dec.Last().Closed() {
		t.Error("Close() did not close the source")
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := p.NextPacket(); !errors.Is(err, pipeline.ErrClosed) {
		t.Errorf("NextPacket() after Close error = %v, want ErrClosed", err)
	}
}
