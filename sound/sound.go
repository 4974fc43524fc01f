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

// Package sound captures microphone audio and scores it for activity.
package sound

import (
	"fmt"
	"math"
	"time"
)

// Chunk is one fixed-size buffer of interleaved 16 bit PCM samples,
// timestamped at capture time.
type Chunk struct {
	Samples   []int16
	Timestamp time.Time
}

// RMS returns the root mean square amplitude of the chunk. Samples are
// squared as float64 so a full-scale int16 cannot overflow. A silent or
// empty chunk scores 0.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

type Config struct {
	Disabled   bool `yaml:"disabled"`
	Device     int  `yaml:"device"`
	SampleRate int  `yaml:"sample-rate"`
	Channels   int  `yaml:"channels"`
	ChunkSize  int  `yaml:"chunk-size"`
	QueueSize  int  `yaml:"queue-size"`
}

func DefaultConfig() Config {
	return Config{
		Device:     0,
		SampleRate: 44100,
		Channels:   2,
		ChunkSize:  4096,
		QueueSize:  32,
	}
}

func (conf *Config) Validate() error {
	if conf.SampleRate <= 0 {
		return fmt.Errorf("sample-rate must be positive")
	}
	if conf.Channels < 1 || conf.Channels > 2 {
		return fmt.Errorf("channels must be 1 or 2")
	}
	if conf.ChunkSize <= 0 {
		return fmt.Errorf("chunk-size must be positive")
	}
	if conf.QueueSize <= 0 {
		return fmt.Errorf("queue-size must be positive")
	}
	return nil
}
