// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

var errUsage = errors.New("usage")

// transport is the part of player.Engine the prompt drives.
type transport interface {
	Play() error
	Pause() error
	Seek(sec float64) (float64, error)
	SetVolume(v float32) error
	SetSpeed(v float32) error
	CurrentTime() (float64, error)
	Duration() float64
	Volume() float32
	Speed() float32
	Paused() bool
}

const help = `commands:
  play            resume playback
  pause           pause playback
  seek <seconds>  jump to a position
  volume [0..1]   show or set the volume
  speed [rate]    show or set the speed
  time            show the position
  quit            stop and exit`

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("play"),
		readline.PcItem("pause"),
		readline.PcItem("seek"),
		readline.PcItem("volume"),
		readline.PcItem("speed"),
		readline.PcItem("time"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// dispatch runs one prompt line against t and reports whether the user
// asked to quit.
func dispatch(t transport, line string, w io.Writer) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil

	case "help", "?":
		fmt.Fprintln(w, help)

	case "play":
		return false, t.Play()

	case "pause":
		return false, t.Pause()

	case "seek":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: seek <seconds>", errUsage)
		}
		sec, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, fmt.Errorf("%w: seek <seconds>", errUsage)
		}
		at, err := t.Seek(sec)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(w, clock(at))

	case "volume", "vol":
		if len(args) == 0 {
			fmt.Fprintf(w, "%.2f\n", t.Volume())
			return false, nil
		}
		v, err := strconv.ParseFloat(args[0], 32)
		if err != nil {
			return false, fmt.Errorf("%w: volume <0..1>", errUsage)
		}
		return false, t.SetVolume(float32(v))

	case "speed":
		if len(args) == 0 {
			fmt.Fprintf(w, "%.2fx\n", t.Speed())
			return false, nil
		}
		v, err := strconv.ParseFloat(args[0], 32)
		if err != nil {
			return false, fmt.Errorf("%w: speed <rate>", errUsage)
		}
		return false, t.SetSpeed(float32(v))

	case "time", "t":
		at, err := t.CurrentTime()
		if err != nil {
			return false, err
		}
		state := "playing"
		if t.Paused() {
			state = "paused"
		}
		fmt.Fprintf(w, "%s / %s (%s)\n", clock(at), clock(t.Duration()), state)

	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}

	return false, nil
}

// clock formats seconds as m:ss.t
func clock(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	m := int(sec) / 60
	return fmt.Sprintf("%d:%04.1f", m, sec-float64(m*60))
}
