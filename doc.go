// SPDX-License-Identifier: EPL-2.0

// Package musa plays audio files and draws their waveforms.
//
// The work is split across subpackages:
//   - audio holds the Source and Decoder abstractions, probing and the
//     channel and rate adapters
//   - formats and its children decode WAV, AIFF, FLAC, Ogg Vorbis and MP3
//   - pipeline turns a file into timestamped packets in a chosen format
//   - player keeps the playback state the device callback reads from and
//     exposes the transport (load, play, pause, seek, volume)
//   - output opens the sound card through oto
//   - waveform reduces a file to a short peak envelope
//
// This package only wraps the common waveform calls:
//
//	peaks, err := musa.ExtractWaveform("song.flac", 200)
//
// Playback goes through player.Engine:
//
//	dev, err := output.Open(output.Config{})
//	eng, err := player.New(player.Options{Output: dev})
//	defer eng.Close()
//	if err := eng.Load("song.flac"); err != nil {
//		return err
//	}
//	err = eng.Play()
package musa
