// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/musa/formats/wav"
	"github.com/ik5/musa/utils"
	"github.com/spf13/afero"
)

// Constant returns frames*channels samples all equal to v.
func Constant(frames, channels int, v float32) []float32 {
	out := make([]float32, frames*channels)
	for i := range out {
		out[i] = v
	}
	return out
}

// Stereo interleaves left and right.
func Stereo(left, right []float32) []float32 {
	out := make([]float32, 0, 2*len(left))
	for i := range left {
		out = append(out, left[i], right[i])
	}
	return out
}

// WAV encodes samples as an in-memory 16-bit PCM WAV file.
func WAV(sampleRate, channels int, samples []float32) []byte {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = utils.Float32ToInt16(s)
	}
	var buf bytes.Buffer
	if err := wav.WriteWAV16(&buf, sampleRate, channels, pcm); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func intBuffer(sampleRate, channels int, samples []float32) *goaudio.IntBuffer {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(utils.Float32ToInt16(s))
	}
	return &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
}

// StreamedWAV is WAV with the data chunk size set the way recorders that
// cannot seek back leave it, far beyond the actual data.
func StreamedWAV(sampleRate, channels int, samples []float32) []byte {
	data := WAV(sampleRate, channels, samples)
	at := bytes.Index(data, []byte("data"))
	if at < 0 {
		panic("wav fixture without a data chunk")
	}
	binary.LittleEndian.PutUint32(data[at+4:], 0xFFFFFFF0)
	return data
}

// WriteWAVFile writes a 16-bit PCM WAV file to fs with the go-audio encoder.
func WriteWAVFile(fs afero.Fs, path string, sampleRate, channels int, samples []float32) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	defer f.Close()

	enc := gowav.NewEncoder(f, sampleRate, 16, channels, 1)
	if err := enc.Write(intBuffer(sampleRate, channels, samples)); err != nil {
		return fmt.Errorf("%w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// WriteAIFFFile writes a 16-bit AIFF file to fs.
func WriteAIFFFile(fs afero.Fs, path string, sampleRate, channels int, samples []float32) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	defer f.Close()

	enc := aiff.NewEncoder(f, sampleRate, 16, channels)
	if err := enc.Write(intBuffer(sampleRate, channels, samples)); err != nil {
		return fmt.Errorf("%w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// OverstateAIFFFrames rewrites the frame count in the COMM chunk of the
// AIFF file at path to n.
func OverstateAIFFFrames(fs afero.Fs, path string, n uint32) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	at := bytes.Index(data, []byte("COMM"))
	if at < 0 {
		return fmt.Errorf("%s: no COMM chunk", path)
	}
	// id, size, channel count, then the frame count
	binary.BigEndian.PutUint32(data[at+10:], n)
	return afero.WriteFile(fs, path, data, 0o644)
}

// WriteMockFile writes a file the mock Decoder will sniff.
func WriteMockFile(fs afero.Fs, path string) error {
	return afero.WriteFile(fs, path, []byte(Magic+"-payload"), 0o644)
}
