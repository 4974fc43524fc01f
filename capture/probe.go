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

package capture

import (
	"fmt"
	"runtime"

	"gocv.io/x/gocv"
)

// Capabilities reports the limits a camera settled on when pushed past
// plausible values.
type Capabilities struct {
	MaxWidth  int
	MaxHeight int
	MaxFPS    int
}

// Probe asks a camera for an absurdly large resolution and frame rate and
// reports what the driver clamped them to. One-shot; the device is released
// before returning.
func Probe(index int) (*Capabilities, error) {
	cam, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("opening camera %d: %w", index, err)
	}
	defer cam.Close()

	// Linux V4L2 drivers misbehave when asked for impossible values, so
	// probe with realistic upper bounds there.
	if runtime.GOOS == "linux" {
		cam.Set(gocv.VideoCaptureFrameWidth, 3840)
		cam.Set(gocv.VideoCaptureFrameHeight, 2160)
		cam.Set(gocv.VideoCaptureFPS, 120)
	} else {
		cam.Set(gocv.VideoCaptureFrameWidth, 9999)
		cam.Set(gocv.VideoCaptureFrameHeight, 9999)
		cam.Set(gocv.VideoCaptureFPS, 200)
	}

	return &Capabilities{
		MaxWidth:  int(cam.Get(gocv.VideoCaptureFrameWidth)),
		MaxHeight: int(cam.Get(gocv.VideoCaptureFrameHeight)),
		MaxFPS:    int(cam.Get(gocv.VideoCaptureFPS)),
	}, nil
}
