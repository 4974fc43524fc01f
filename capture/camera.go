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

// Package capture provides the camera frame source.
package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned by NextFrame when the camera produced no
// usable image. Treated as a transient read failure by the controller.
var ErrEmptyFrame = errors.New("camera returned an empty frame")

// Frame is one captured video frame, timestamped at read time. The Mat is
// owned by the caller of NextFrame and reused between ticks.
type Frame struct {
	Mat       gocv.Mat
	Timestamp time.Time
}

func NewFrame() *Frame {
	return &Frame{Mat: gocv.NewMat()}
}

func (f *Frame) Close() error {
	return f.Mat.Close()
}

type CameraConfig struct {
	Index  int     `yaml:"index"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
}

func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Index:  0,
		Width:  1280,
		Height: 720,
		FPS:    10,
	}
}

func (conf *CameraConfig) Validate() error {
	if conf.Width <= 0 || conf.Height <= 0 {
		return fmt.Errorf("resolution must be positive, got %dx%d", conf.Width, conf.Height)
	}
	if conf.FPS <= 0 {
		return fmt.Errorf("fps must be positive")
	}
	return nil
}

// FrameInterval is the nominal time between frames at the configured rate.
func (conf *CameraConfig) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / conf.FPS)
}

// OpenCamera opens the configured camera device and requests the configured
// resolution. The driver may clamp the resolution; the actual values are
// logged so a mismatch is visible.
func OpenCamera(conf *CameraConfig, log zerolog.Logger) (*Camera, error) {
	cam, err := gocv.VideoCaptureDevice(conf.Index)
	if err != nil {
		return nil, fmt.Errorf("opening camera %d: %w", conf.Index, err)
	}

	cam.Set(gocv.VideoCaptureFrameWidth, float64(conf.Width))
	cam.Set(gocv.VideoCaptureFrameHeight, float64(conf.Height))

	actualW := int(cam.Get(gocv.VideoCaptureFrameWidth))
	actualH := int(cam.Get(gocv.VideoCaptureFrameHeight))
	if actualW != conf.Width || actualH != conf.Height {
		log.Warn().
			Int("requested_width", conf.Width).Int("requested_height", conf.Height).
			Int("width", actualW).Int("height", actualH).
			Msg("camera clamped requested resolution")
	}
	log.Info().Int("index", conf.Index).
		Int("width", actualW).Int("height", actualH).
		Float64("fps", conf.FPS).
		Str("backend", cam.CodecString()).
		Msg("camera opened")

	return &Camera{cam: cam}, nil
}

// Camera wraps an open capture device of raw video frames.
type Camera struct {
	cam *gocv.VideoCapture
}

// NextFrame reads the next frame into f, blocking until the camera
// delivers one. The frame is timestamped when the read completes.
func (c *Camera) NextFrame(f *Frame) error {
	if ok := c.cam.Read(&f.Mat); !ok {
		return fmt.Errorf("reading from camera: %w", ErrEmptyFrame)
	}
	if f.Mat.Empty() {
		return ErrEmptyFrame
	}
	f.Timestamp = time.Now()
	return nil
}

func (c *Camera) Close() error {
	return c.cam.Close()
}
