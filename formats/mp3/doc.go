// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III through github.com/hajimehoshi/go-mp3.
//
// Output is always interleaved stereo. When the input is an io.Seeker the
// source knows its length and seeks by frame; otherwise Frames reports 0.
package mp3
