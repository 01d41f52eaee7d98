// SPDX-License-Identifier: EPL-2.0

// Package wav decodes RIFF/WAVE files through github.com/go-audio/wav.
//
// Integer PCM at 8, 16, 24 and 32 bits is supported, including
// WAVE_FORMAT_EXTENSIBLE headers. The decoded source reports its total
// frame count from the data chunk size and seeks accurately by rewinding to
// the data chunk and discarding frames.
//
//	src, err := wav.Decoder{}.Decode(file)
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// WriteWAV16 writes 16-bit PCM files; tests use it to build fixtures.
package wav
