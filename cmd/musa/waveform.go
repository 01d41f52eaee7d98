// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/ik5/musa/config"
	"github.com/ik5/musa/waveform"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newWaveformCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waveform <file>",
		Short: "Print the peak envelope of a file, one value per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := waveform.ParseMode(a.cfg.Waveform.Mode)
			if err != nil {
				return err
			}

			x := waveform.New(waveform.Options{Logger: a.log})
			points, err := x.Extract(cmd.Context(), args[0], a.cfg.Waveform.Points, mode)
			if err != nil {
				return err
			}

			lines := lo.Map(points, func(v float32, _ int) string {
				return fmt.Sprintf("%.4f", v)
			})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return err
		},
	}

	cmd.Flags().IntP("points", "n", waveform.DefaultPoints, "number of points")
	cmd.Flags().StringP("mode", "m", "exact", "extraction mode (exact, streaming)")
	lo.Must0(a.v.BindPFlag(config.KeyWaveformPoints, cmd.Flags().Lookup("points")))
	lo.Must0(a.v.BindPFlag(config.KeyWaveformMode, cmd.Flags().Lookup("mode")))

	return cmd
}
