// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/ik5/musa/config"
	"github.com/ik5/musa/output"
	"github.com/ik5/musa/player"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var _ transport = (*player.Engine)(nil)

func newPlayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Play a file with an interactive transport prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.play(args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().Float32("volume", 1, "initial volume, 0 to 1")
	cmd.Flags().Int("sample-rate", output.DefaultSampleRate, "device sample rate")
	cmd.Flags().Duration("buffer", output.DefaultBuffer, "device buffer length")
	lo.Must0(a.v.BindPFlag(config.KeyPlaybackVolume, cmd.Flags().Lookup("volume")))
	lo.Must0(a.v.BindPFlag(config.KeyOutputSampleRate, cmd.Flags().Lookup("sample-rate")))
	lo.Must0(a.v.BindPFlag(config.KeyOutputBuffer, cmd.Flags().Lookup("buffer")))

	return cmd
}

func (a *app) play(path string, w io.Writer) error {
	dev, err := output.Open(output.Config{
		SampleRate: a.cfg.Output.SampleRate,
		Channels:   a.cfg.Output.Channels,
		Buffer:     a.cfg.Output.Buffer,
	})
	if err != nil {
		return err
	}

	eng, err := player.New(player.Options{
		Output:          dev,
		RefillThreshold: a.cfg.Playback.RefillThreshold,
		PacketFrames:    a.cfg.Playback.PacketFrames,
		Volume:          lo.ToPtr(float32(a.cfg.Playback.Volume)),
		Logger:          a.log,
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Load(path); err != nil {
		return err
	}
	if err := eng.Play(); err != nil {
		return err
	}

	if tr, ok := eng.Track(); ok {
		fmt.Fprintf(w, "%s: %s, %d Hz, %d ch, %s\n", tr.Path, tr.Format, tr.SampleRate, tr.Channels, clock(eng.Duration()))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "musa> ",
		AutoComplete:    completer(),
		Stdout:          w,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w", err)
		}

		quit, err := dispatch(eng, line, rl.Stdout())
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}
