// activity-surveil - activity triggered audio and video recording
//  Copyright (C) 2024, Shepherd1226
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"io/ioutil"
	"runtime"

	yaml "gopkg.in/yaml.v2"

	"github.com/Shepherd1226/Activity-Surveil/activity"
	"github.com/Shepherd1226/Activity-Surveil/capture"
	"github.com/Shepherd1226/Activity-Surveil/motion"
	"github.com/Shepherd1226/Activity-Surveil/recorder"
	"github.com/Shepherd1226/Activity-Surveil/sound"
	"github.com/Shepherd1226/Activity-Surveil/throttle"
)

type Config struct {
	OutputDir      string `yaml:"output-dir"`
	MinDiskSpace   uint64 `yaml:"min-disk-space"`
	Format         string `yaml:"format"`
	Codec          string `yaml:"codec"` // empty means pick per platform
	WriteQueueSize int    `yaml:"write-queue-size"`
	Camera         capture.CameraConfig
	Motion         motion.Config
	Sound          sound.Config
	Trigger        activity.Config
	Throttler      throttle.Config
}

var defaultConfig = Config{
	OutputDir:      "videos",
	MinDiskSpace:   200,
	Format:         "mp4",
	Codec:          "",
	WriteQueueSize: 64,
	Camera:         capture.DefaultCameraConfig(),
	Motion:         motion.DefaultConfig(),
	Sound:          sound.DefaultConfig(),
	Trigger:        activity.DefaultConfig(),
	Throttler:      throttle.DefaultConfig(),
}

func ParseConfigFile(filename string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	conf := defaultConfig
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (conf *Config) Validate() error {
	if conf.OutputDir == "" {
		return fmt.Errorf("output-dir must be set")
	}
	if conf.WriteQueueSize <= 0 {
		return fmt.Errorf("write-queue-size must be positive")
	}
	if err := conf.Camera.Validate(); err != nil {
		return err
	}
	if err := conf.Motion.Validate(); err != nil {
		return err
	}
	if err := conf.Sound.Validate(); err != nil {
		return err
	}
	if err := conf.Trigger.Validate(); err != nil {
		return err
	}
	if err := conf.Throttler.Validate(); err != nil {
		return err
	}

	// A trigger method with every sensor it depends on disabled can never
	// fire, which is a configuration mistake rather than a quiet night.
	method := conf.Trigger.Method
	switch {
	case method == activity.TriggerMotion && conf.Motion.Disabled:
		return fmt.Errorf("trigger method is motion but the motion sensor is disabled")
	case method == activity.TriggerSound && conf.Sound.Disabled:
		return fmt.Errorf("trigger method is sound but the sound sensor is disabled")
	case method == activity.TriggerEither && conf.Motion.Disabled && conf.Sound.Disabled:
		return fmt.Errorf("trigger method is either but both sensors are disabled")
	}
	if conf.Trigger.Record.IncludesAudio() && conf.Sound.Disabled {
		return fmt.Errorf("record content %q needs the sound device but it is disabled", conf.Trigger.Record)
	}

	return nil
}

// RecorderConfig assembles the flat sink configuration from the sections,
// with the codec resolved for the running platform.
func (conf *Config) RecorderConfig() recorder.Config {
	codec := conf.Codec
	if codec == "" {
		codec = platformCodec(runtime.GOOS)
	}
	return recorder.Config{
		OutputDir:    conf.OutputDir,
		MinDiskSpace: conf.MinDiskSpace,
		Content:      conf.Trigger.Record,
		Format:       conf.Format,
		Codec:        codec,
		FPS:          conf.Camera.FPS,
		Width:        conf.Camera.Width,
		Height:       conf.Camera.Height,
		SampleRate:   conf.Sound.SampleRate,
		Channels:     conf.Sound.Channels,
		QueueSize:    conf.WriteQueueSize,
	}
}

func platformCodec(goos string) string {
	if goos == "darwin" {
		return "avc1"
	}
	return "mp4v"
}
