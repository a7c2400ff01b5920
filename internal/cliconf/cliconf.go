// Package cliconf contains the command line configuration of the example programs.
package cliconf

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bluenviron/streamclock/pkg/clockconf"
)

// EnvPrefix is the prefix of environment variables that override flags.
const EnvPrefix = "STREAMCLOCK"

// Settings are the settings of an example program.
type Settings struct {
	Level     string `mapstructure:"level"`
	ClockFile string `mapstructure:"clock_file"`
	Input     string `mapstructure:"input"`
	SDPFile   string `mapstructure:"sdp_file"`
	Realtime  bool   `mapstructure:"realtime"`
}

// Load reads settings from command line arguments and environment variables,
// sets the log level and loads the clock configuration.
func Load(name string, args []string, defaults Settings) (*Settings, *clockconf.Conf, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("level", defaults.Level, "log level")
	fs.String("clock_file", defaults.ClockFile, "clock configuration file (YAML)")
	fs.String("input", defaults.Input, "input file or address")
	fs.String("sdp_file", defaults.SDPFile, "SDP file describing the input")
	fs.Bool("realtime", defaults.Realtime, "read the input at the pace of the clock")

	err := fs.Parse(args)
	if err != nil {
		return nil, nil, err
	}

	v := viper.New()

	err = v.BindPFlags(fs)
	if err != nil {
		return nil, nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	err = v.Unmarshal(&s)
	if err != nil {
		return nil, nil, err
	}

	if s.Level != "" {
		l, err := log.ParseLevel(s.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(l)
		log.SetReportCaller(l == log.DebugLevel)
	}

	var conf *clockconf.Conf
	if s.ClockFile != "" {
		conf, err = clockconf.Load(s.ClockFile)
	} else {
		conf, err = clockconf.Unmarshal(nil)
	}
	if err != nil {
		return nil, nil, err
	}

	log.Debugf("Current configurations: \n%# v\n%# v", pretty.Formatter(s), pretty.Formatter(*conf))

	return &s, conf, nil
}
