// SPDX-License-Identifier: EPL-2.0

// Package formats wires every bundled decoder into one registry.
package formats

import (
	"github.com/ik5/musa/audio"
	"github.com/ik5/musa/formats/aiff"
	"github.com/ik5/musa/formats/flac"
	"github.com/ik5/musa/formats/mp3"
	"github.com/ik5/musa/formats/vorbis"
	"github.com/ik5/musa/formats/wav"
)

// Format keys used by Default.
const (
	WAV    = "wav"
	AIFF   = "aiff"
	FLAC   = "flac"
	Vorbis = "ogg vorbis"
	MP3    = "mp3"
)

// Default returns a registry holding all bundled decoders. Containers with
// a fixed magic number come first; MP3 frame sync is the loosest match and
// is sniffed last.
func Default() *audio.Registry {
	r := audio.NewRegistry()
	r.Register(WAV, wav.Decoder{}, "wav", "wave")
	r.Register(AIFF, aiff.Decoder{}, "aiff", "aif", "aifc")
	r.Register(FLAC, flac.Decoder{}, "flac")
	r.Register(Vorbis, vorbis.Decoder{}, "ogg", "oga")
	r.Register(MP3, mp3.Decoder{}, "mp3")
	return r
}
