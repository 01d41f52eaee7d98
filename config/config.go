// SPDX-License-Identifier: EPL-2.0

// Package config loads musa's settings from musa.yaml, MUSA_* environment
// variables and bound command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const Name = "musa"

// EnvKeyReplacer turns a key such as output.sample_rate into the
// OUTPUT_SAMPLE_RATE part of its environment variable.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// SearchPaths are tried in order for musa.yaml.
var SearchPaths = []string{".", "$HOME/.musa", "/etc/musa"}

type Output struct {
	SampleRate int           `mapstructure:"sample_rate"`
	Channels   int           `mapstructure:"channels"`
	Buffer     time.Duration `mapstructure:"buffer"`
}

type Playback struct {
	RefillThreshold int     `mapstructure:"refill_threshold"`
	PacketFrames    int     `mapstructure:"packet_frames"`
	Volume          float64 `mapstructure:"volume"`
}

type Waveform struct {
	Points int    `mapstructure:"points"`
	Mode   string `mapstructure:"mode"`
}

type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Output   Output   `mapstructure:"output"`
	Playback Playback `mapstructure:"playback"`
	Waveform Waveform `mapstructure:"waveform"`
	Logging  Logging  `mapstructure:"logging"`
}

// ConfigError reports a key holding an unusable value.
type ConfigError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s = %v: %s", e.Key, e.Value, e.Reason)
}

// New returns a viper instance with defaults, environment bindings and the
// config search path set up. fs is where config files are looked for; nil
// means the OS filesystem.
func New(fs afero.Fs) *viper.Viper {
	v := viper.New()
	if fs != nil {
		v.SetFs(fs)
	}
	v.SetConfigName(Name)
	v.SetConfigType("yaml")
	for _, p := range SearchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(Name)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()

	v.SetTypeByDefaultValue(true)
	for name, field := range Default {
		v.SetDefault(name, field.Value)
	}
	return v
}

// Read loads the config file into v if one exists. A missing file is not an
// error.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load reads v and decodes it into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := Read(v); err != nil {
		return nil, err
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every value against its allowed range and returns the
// first violation as a *ConfigError.
func (c *Config) Validate() error {
	switch {
	case c.Output.SampleRate <= 0:
		return &ConfigError{KeyOutputSampleRate, c.Output.SampleRate, "must be positive"}
	case c.Output.Channels <= 0:
		return &ConfigError{KeyOutputChannels, c.Output.Channels, "must be positive"}
	case c.Output.Buffer < 0:
		return &ConfigError{KeyOutputBuffer, c.Output.Buffer, "must not be negative"}
	case c.Playback.RefillThreshold <= 0:
		return &ConfigError{KeyPlaybackRefillThreshold, c.Playback.RefillThreshold, "must be positive"}
	case c.Playback.PacketFrames <= 0:
		return &ConfigError{KeyPlaybackPacketFrames, c.Playback.PacketFrames, "must be positive"}
	case c.Playback.Volume < 0 || c.Playback.Volume > 1:
		return &ConfigError{KeyPlaybackVolume, c.Playback.Volume, "must be between 0 and 1"}
	case c.Waveform.Points < 0:
		return &ConfigError{KeyWaveformPoints, c.Waveform.Points, "must not be negative"}
	case !lo.Contains([]string{"exact", "streaming"}, strings.ToLower(c.Waveform.Mode)):
		return &ConfigError{KeyWaveformMode, c.Waveform.Mode, "must be exact or streaming"}
	case !lo.Contains([]string{"text", "json"}, strings.ToLower(c.Logging.Format)):
		return &ConfigError{KeyLoggingFormat, c.Logging.Format, "must be text or json"}
	}
	return nil
}
