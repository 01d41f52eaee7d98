// SPDX-License-Identifier: EPL-2.0

package main

import (
	"github.com/ik5/musa/config"
	"github.com/ik5/musa/logger"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app is the state shared by every subcommand once the root command has
// loaded the configuration.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New(nil)}

	root := &cobra.Command{
		Use:          config.Name,
		Short:        "Play audio files and draw their waveforms",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is musa.yaml in ., $HOME/.musa or /etc/musa)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")
	lo.Must0(a.v.BindPFlag(config.KeyLoggingLevel, root.PersistentFlags().Lookup("log-level")))
	lo.Must0(a.v.BindPFlag(config.KeyLoggingFormat, root.PersistentFlags().Lookup("log-format")))

	root.AddCommand(newPlayCmd(a), newWaveformCmd(a))
	return root
}

func (a *app) setup() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}

	log, err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format, nil)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	return nil
}
