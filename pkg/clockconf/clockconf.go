// Package clockconf contains the YAML configuration of a stream clock.
package clockconf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bluenviron/streamclock"
)

// Rate is a playback rate that can be decoded from "num/den" or decimal strings.
type Rate streamclock.Rate

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Rate) UnmarshalYAML(value *yaml.Node) error {
	var s string
	err := value.Decode(&s)
	if err != nil {
		return err
	}

	tmp, err := streamclock.ParseRate(s)
	if err != nil {
		return err
	}

	*r = Rate(tmp)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Rate) MarshalYAML() (any, error) {
	return streamclock.Rate(r).String(), nil
}

// Conf is the configuration of a stream clock.
// Fields left empty take the clock defaults.
type Conf struct {
	ID                string        `yaml:"id"`
	Master            bool          `yaml:"master"`
	AveragingWindow   int           `yaml:"averagingWindow"`
	Rate              Rate          `yaml:"rate"`
	StreamClockRate   int           `yaml:"streamClockRate"`
	SystemClockRate   int           `yaml:"systemClockRate"`
	MaxGap            time.Duration `yaml:"maxGap"`
	MeanPTSGap        time.Duration `yaml:"meanPTSGap"`
	DriftUpdatePeriod time.Duration `yaml:"driftUpdatePeriod"`
	PresentationDelay time.Duration `yaml:"presentationDelay"`
}

// Unmarshal decodes a configuration from YAML.
// Unknown fields are rejected.
func Unmarshal(byts []byte) (*Conf, error) {
	conf := &Conf{}

	dec := yaml.NewDecoder(bytes.NewReader(byts))
	dec.KnownFields(true)

	err := dec.Decode(conf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	err = conf.validate()
	if err != nil {
		return nil, err
	}

	return conf, nil
}

// Load loads a configuration from a YAML file.
func Load(fpath string) (*Conf, error) {
	byts, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	conf, err := Unmarshal(byts)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration file '%s': %w", fpath, err)
	}

	return conf, nil
}

func (conf *Conf) validate() error {
	if conf.AveragingWindow < 0 {
		return fmt.Errorf("'averagingWindow' must be positive")
	}
	if conf.StreamClockRate < 0 {
		return fmt.Errorf("'streamClockRate' must be positive")
	}
	if conf.SystemClockRate < 0 {
		return fmt.Errorf("'systemClockRate' must be positive")
	}
	if conf.MaxGap < 0 {
		return fmt.Errorf("'maxGap' must be positive")
	}
	if conf.MeanPTSGap < 0 {
		return fmt.Errorf("'meanPTSGap' must be positive")
	}
	if conf.DriftUpdatePeriod < 0 {
		return fmt.Errorf("'driftUpdatePeriod' must be positive")
	}
	if conf.PresentationDelay < 0 {
		return fmt.Errorf("'presentationDelay' must be positive")
	}
	return nil
}

// Clock allocates a Clock with this configuration.
// The caller can set callbacks before initializing it.
func (conf *Conf) Clock() *streamclock.Clock {
	return &streamclock.Clock{
		ID:                conf.ID,
		Master:            conf.Master,
		AveragingWindow:   conf.AveragingWindow,
		InitialRate:       streamclock.Rate(conf.Rate),
		StreamClockRate:   conf.StreamClockRate,
		SystemClockRate:   conf.SystemClockRate,
		MaxGap:            conf.MaxGap,
		MeanPTSGap:        conf.MeanPTSGap,
		DriftUpdatePeriod: conf.DriftUpdatePeriod,
	}
}

// PresentationDelayTicks returns the presentation delay in system ticks of the given clock.
func (conf *Conf) PresentationDelayTicks(c *streamclock.Clock) int64 {
	return streamclock.DurationToTicks(conf.PresentationDelay, c.SystemClockRate)
}
