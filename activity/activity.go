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

package activity

import (
	"fmt"
	"time"
)

// TriggerMethod selects which sensors may start a recording.
type TriggerMethod string

const (
	TriggerMotion TriggerMethod = "motion"
	TriggerSound  TriggerMethod = "sound"
	TriggerEither TriggerMethod = "either"
)

func (m TriggerMethod) Valid() bool {
	switch m {
	case TriggerMotion, TriggerSound, TriggerEither:
		return true
	}
	return false
}

// UsesMotion reports whether the method needs the motion sensor.
func (m TriggerMethod) UsesMotion() bool {
	return m == TriggerMotion || m == TriggerEither
}

// UsesSound reports whether the method needs the sound sensor.
func (m TriggerMethod) UsesSound() bool {
	return m == TriggerSound || m == TriggerEither
}

// RecordContent selects what a recording session writes to disk.
type RecordContent string

const (
	RecordVideo RecordContent = "video"
	RecordAudio RecordContent = "audio"
	RecordBoth  RecordContent = "both"
	RecordNone  RecordContent = "none"
)

func (c RecordContent) Valid() bool {
	switch c {
	case RecordVideo, RecordAudio, RecordBoth, RecordNone:
		return true
	}
	return false
}

func (c RecordContent) IncludesVideo() bool {
	return c == RecordVideo || c == RecordBoth
}

func (c RecordContent) IncludesAudio() bool {
	return c == RecordAudio || c == RecordBoth
}

// Sample is one point-in-time observation from the sensors. A nil score
// means the sensor produced nothing this tick (disabled, or no previous
// frame yet for motion).
type Sample struct {
	Motion    *float64
	Sound     *float64
	Timestamp time.Time
}

// TriggerReason names the sensor that fired for a sample, for logging.
func (s Sample) TriggerReason(conf *Config) string {
	if conf.Method.UsesSound() && s.Sound != nil && *s.Sound >= conf.SoundThreshold {
		return "sound"
	}
	return "motion"
}

type Config struct {
	Method          TriggerMethod `yaml:"method"`
	Record          RecordContent `yaml:"record"`
	MotionThreshold float64       `yaml:"motion-threshold"`
	SoundThreshold  float64       `yaml:"sound-threshold"`
	NoActivitySecs  int           `yaml:"no-activity-secs"`
}

func DefaultConfig() Config {
	return Config{
		Method:          TriggerEither,
		Record:          RecordBoth,
		MotionThreshold: 30000,
		SoundThreshold:  500,
		NoActivitySecs:  10,
	}
}

func (conf *Config) Validate() error {
	if !conf.Method.Valid() {
		return fmt.Errorf("unknown trigger method %q", conf.Method)
	}
	if !conf.Record.Valid() {
		return fmt.Errorf("unknown record content %q", conf.Record)
	}
	if conf.NoActivitySecs <= 0 {
		return fmt.Errorf("no-activity-secs must be positive")
	}
	return nil
}

// NoActivityTimeout is the grace period a session stays open after the last
// observed activity.
func (conf *Config) NoActivityTimeout() time.Duration {
	return time.Duration(conf.NoActivitySecs) * time.Second
}
