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

// Package throttle caps how much recording an unattended device may do.
package throttle

import (
	"time"

	"github.com/juju/ratelimit"
	"github.com/rs/zerolog"

	"github.com/Shepherd1226/Activity-Surveil/capture"
	"github.com/Shepherd1226/Activity-Surveil/recorder"
	"github.com/Shepherd1226/Activity-Surveil/sound"
)

// NewThrottledRecorder wraps a Recorder so that it stops recording (gets
// throttled) if asked to record too much. Extra recordings of a persistent
// stimulus (a flapping curtain, a humming appliance) carry no new
// information and just fill the disk.
//
// The token bucket holds units of recording: one unit per video frame, or
// one per audio chunk when no video is being written. unitsPerSec is the
// rate the controller produces them at.
func NewThrottledRecorder(
	baseRecorder recorder.Recorder,
	conf *Config,
	minSeconds int,
	unitsPerSec float64,
	consumeOnAudio bool,
	listener ThrottledEventListener,
	log zerolog.Logger,
) *ThrottledRecorder {
	return NewThrottledRecorderWithClock(
		baseRecorder, conf, minSeconds, unitsPerSec, consumeOnAudio,
		listener, log, new(realClock))
}

func NewThrottledRecorderWithClock(
	baseRecorder recorder.Recorder,
	conf *Config,
	minSeconds int,
	unitsPerSec float64,
	consumeOnAudio bool,
	listener ThrottledEventListener,
	log zerolog.Logger,
	clock ratelimit.Clock,
) *ThrottledRecorder {
	bucketUnits := int64(float64(conf.BucketSecs) * unitsPerSec)
	minUnits := int64(float64(minSeconds) * unitsPerSec)
	refillRate := float64(minUnits) / float64(conf.MinRefillSecs)

	if minUnits > bucketUnits {
		log.Warn().Msg("minimum recording length is greater than throttle bucket - recording will not be possible")
	}

	bucket := ratelimit.NewBucketWithRateAndClock(refillRate, bucketUnits, clock)

	if listener == nil {
		listener = new(nullListener)
	}

	return &ThrottledRecorder{
		recorder:       baseRecorder,
		listener:       listener,
		bucket:         bucket,
		minUnits:       minUnits,
		consumeOnAudio: consumeOnAudio,
		log:            log,
	}
}

// ThrottledRecorder wraps a Recorder, discarding a session when the token
// bucket runs dry. A throttled start is not an error: the controller keeps
// running and the session simply produces no file.
type ThrottledRecorder struct {
	recorder       recorder.Recorder
	listener       ThrottledEventListener
	bucket         *ratelimit.Bucket
	log            zerolog.Logger
	recording      bool
	throttled      bool
	minUnits       int64
	consumeOnAudio bool
}

type ThrottledEventListener interface {
	WhenThrottled()
}

type nullListener struct{}

func (lis *nullListener) WhenThrottled() {}

type realClock struct{}

func (*realClock) Now() time.Time {
	return time.Now()
}

func (c *realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

func (throttler *ThrottledRecorder) CheckCanRecord() error {
	return throttler.recorder.CheckCanRecord()
}

func (throttler *ThrottledRecorder) StartRecording(start time.Time) error {
	if throttler.bucket.Available() < throttler.minUnits {
		throttler.log.Info().Msg("recording not started due to throttling")
		throttler.throttled = true
		throttler.listener.WhenThrottled()
		return nil
	}
	if err := throttler.recorder.StartRecording(start); err != nil {
		return err
	}
	throttler.recording = true
	return nil
}

func (throttler *ThrottledRecorder) StopRecording() error {
	throttler.throttled = false
	if !throttler.recording {
		return nil
	}
	throttler.recording = false
	return throttler.recorder.StopRecording()
}

func (throttler *ThrottledRecorder) WriteFrame(frame *capture.Frame) error {
	if !throttler.recording {
		return nil
	}
	if !throttler.consumeOnAudio && !throttler.takeToken() {
		return nil
	}
	return throttler.recorder.WriteFrame(frame)
}

func (throttler *ThrottledRecorder) WriteAudio(chunk sound.Chunk) error {
	if !throttler.recording {
		return nil
	}
	if throttler.consumeOnAudio && !throttler.takeToken() {
		return nil
	}
	return throttler.recorder.WriteAudio(chunk)
}

// takeToken consumes one recording unit. When the bucket is empty the
// current session is closed and further writes are discarded until the
// next session starts.
func (throttler *ThrottledRecorder) takeToken() bool {
	if throttler.bucket.TakeAvailable(1) > 0 {
		return true
	}
	throttler.log.Info().Msg("recording throttled")
	throttler.listener.WhenThrottled()
	throttler.recording = false
	throttler.throttled = true
	if err := throttler.recorder.StopRecording(); err != nil {
		throttler.log.Error().Err(err).Msg("stopping throttled recording")
	}
	return false
}
