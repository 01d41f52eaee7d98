// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams with github.com/jfreymuth/oggvorbis.
//
// Samples come out of the codec as float32 already, so no conversion is
// done. The reader needs random access for SetPosition; plain readers are
// buffered into memory first.
//
// An Ogg container whose first logical stream is not Vorbis is rejected
// with an error wrapping audio.ErrNoTrack.
package vorbis
