// SPDX-License-Identifier: EPL-2.0

// Package audio provides the decode-layer building blocks shared by the
// pipeline, the player and the waveform extractor.
//
// # Source Interface
//
// A Source yields interleaved float32 samples in [-1, 1]:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Sources that can reposition implement FrameSeeker, and those whose
// container records a length implement Lengther. The adapters in this
// package (Resampler, MonoMixer, ChannelMixer) forward both.
//
// # Probing
//
// A Registry maps format keys to decoders. Probe takes a file name and its
// first bytes; the extension picks a candidate that must agree with its
// Sniff, otherwise every decoder is sniffed in registration order:
//
//	reg := audio.NewRegistry()
//	reg.Register("wav", wav.Decoder{}, "wav")
//	format, dec, ok := reg.Probe("song.wav", header)
//
// # Errors
//
// Decoders wrap ErrNoTrack when the container holds nothing they can
// play. Sources wrap ErrDecode for a bad packet the reader may skip, and
// return ErrResetRequired when the decoder must be rebuilt in place.
package audio
