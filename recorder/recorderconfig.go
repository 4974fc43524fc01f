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

package recorder

import (
	"errors"
	"fmt"

	"github.com/Shepherd1226/Activity-Surveil/activity"
)

// Config carries everything the file recorder needs, assembled by the
// top-level config from the camera, sound and trigger sections. The codec
// is already resolved for the running platform.
type Config struct {
	OutputDir    string
	MinDiskSpace uint64 // MB free required before a session may start
	Content      activity.RecordContent
	Format       string // container extension, e.g. "mp4"
	Codec        string // fourcc, e.g. "mp4v"
	FPS          float64
	Width        int
	Height       int
	SampleRate   int
	Channels     int
	QueueSize    int // bounded write queue, in frames/chunks
}

func (conf *Config) Validate() error {
	if conf.OutputDir == "" {
		return errors.New("output dir must be set")
	}
	if conf.Content.IncludesVideo() {
		if len(conf.Codec) != 4 {
			return fmt.Errorf("codec must be a four character code, got %q", conf.Codec)
		}
		if conf.Format == "" {
			return errors.New("output format must be set")
		}
		if conf.FPS <= 0 || conf.Width <= 0 || conf.Height <= 0 {
			return errors.New("video dimensions and fps must be positive")
		}
	}
	if conf.Content.IncludesAudio() {
		if conf.SampleRate <= 0 || conf.Channels <= 0 {
			return errors.New("audio sample rate and channels must be positive")
		}
	}
	if conf.QueueSize <= 0 {
		return errors.New("queue size must be positive")
	}
	return nil
}
