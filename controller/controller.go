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

// Package controller runs the per-frame loop that turns sensor scores
// into recording sessions.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/Shepherd1226/Activity-Surveil/activity"
	"github.com/Shepherd1226/Activity-Surveil/capture"
	"github.com/Shepherd1226/Activity-Surveil/loglimiter"
	"github.com/Shepherd1226/Activity-Surveil/sound"
)

// A long run of consecutive read failures means the camera is gone, not
// glitching.
const maxConsecutiveReadFailures = 50

var errPreviewClosed = errors.New("preview window closed")

// FrameSource produces raw video frames, blocking until the next one is
// available.
type FrameSource interface {
	NextFrame(f *capture.Frame) error
}

// AudioSource returns the chunks captured since the last call, without
// blocking.
type AudioSource interface {
	Drain() []sound.Chunk
}

// FrameScorer turns a frame into a changed-area score. ok is false when no
// score could be produced (no previous frame yet).
type FrameScorer interface {
	Score(f *capture.Frame) (score float64, ok bool)
}

// Options are the runtime toggles from the command line.
type Options struct {
	ShowPreview bool
	Debug       bool
}

// New assembles a Controller. audio and scorer may be nil when the
// corresponding sensor is disabled.
func New(
	conf *activity.Config,
	frames FrameSource,
	audio AudioSource,
	scorer FrameScorer,
	sm *StateMachine,
	frameInterval time.Duration,
	opts Options,
	log zerolog.Logger,
) *Controller {
	return &Controller{
		conf:          conf,
		frames:        frames,
		audio:         audio,
		scorer:        scorer,
		evaluator:     activity.NewEvaluator(conf, log),
		sm:            sm,
		frameInterval: frameInterval,
		opts:          opts,
		log:           log,
		lim:           loglimiter.New(log, minLogInterval),
		frame:         capture.NewFrame(),
		latest:        gocv.NewMat(),
		status:        StateIdle.String(),
	}
}

// Controller is the single coordinating loop: one tick per frame, scoring
// before the state transition, the transition before any session write.
// Everything runs on the goroutine that calls Run; the audio producer only
// ever touches the queue behind AudioSource.
type Controller struct {
	conf          *activity.Config
	frames        FrameSource
	audio         AudioSource
	scorer        FrameScorer
	evaluator     *activity.Evaluator
	sm            *StateMachine
	frameInterval time.Duration
	opts          Options
	log           zerolog.Logger
	lim           *loglimiter.LogLimiter

	frame        *capture.Frame
	window       *gocv.Window
	readFailures int
	ticks        uint64
	skipped      uint64

	mu     sync.Mutex
	latest gocv.Mat
	status string
}

// Run drives ticks until the context is cancelled, the preview window is
// closed, or the frame source is lost. Whatever the exit path, an open
// session is finalised before returning.
func (c *Controller) Run(ctx context.Context) error {
	if c.opts.ShowPreview {
		c.window = gocv.NewWindow("activity-surveil")
	}
	defer c.finish()

	c.log.Info().Msg("initialised successfully")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := c.tick()
		switch {
		case errors.Is(err, errPreviewClosed):
			return nil
		case err != nil:
			return err
		}
	}
}

func (c *Controller) tick() error {
	if err := c.frames.NextFrame(c.frame); err != nil {
		c.skipped++
		c.readFailures++
		if c.readFailures >= maxConsecutiveReadFailures {
			return fmt.Errorf("camera source lost: %w", err)
		}
		c.lim.Printf("dropped frame read: %v", err)
		time.Sleep(c.frameInterval)
		return nil
	}
	c.readFailures = 0
	c.ticks++

	var chunks []sound.Chunk
	if c.audio != nil {
		chunks = c.audio.Drain()
	}

	sample := activity.Sample{Timestamp: c.frame.Timestamp}
	if c.scorer != nil {
		if score, ok := c.scorer.Score(c.frame); ok {
			sample.Motion = &score
		}
	}
	if c.audio != nil && len(chunks) > 0 {
		score := maxRMS(chunks)
		sample.Sound = &score
	}

	active := c.evaluator.Evaluate(sample)

	c.sm.Tick(sample.Timestamp, active, sample.TriggerReason(c.conf))

	if c.sm.State() == StateRecording {
		c.sm.WriteFrame(c.frame)
		for _, chunk := range chunks {
			c.sm.WriteAudio(chunk)
		}
	}

	c.updateLatest()
	if c.opts.Debug {
		c.logTick(sample, active)
	}
	return c.preview()
}

func maxRMS(chunks []sound.Chunk) float64 {
	var max float64
	for _, chunk := range chunks {
		if rms := sound.RMS(chunk.Samples); rms > max {
			max = rms
		}
	}
	return max
}

func (c *Controller) logTick(sample activity.Sample, active bool) {
	event := c.log.Debug().
		Bool("active", active).
		Stringer("state", c.sm.State())
	if sample.Motion != nil {
		event = event.Float64("motion", *sample.Motion)
	}
	if sample.Sound != nil {
		event = event.Float64("sound", *sample.Sound)
	}
	event.Msg("tick")
}

func (c *Controller) preview() error {
	if c.window == nil {
		return nil
	}
	c.window.IMShow(c.frame.Mat)
	if c.window.WaitKey(1) == 27 { // ESC
		return errPreviewClosed
	}
	return nil
}

func (c *Controller) updateLatest() {
	status := c.sm.State().String()
	if start := c.sm.StartTime(); !start.IsZero() {
		status = fmt.Sprintf("%s since %s", status, start.Format(time.RFC3339))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.frame.Mat.Empty() {
		c.frame.Mat.CopyTo(&c.latest)
	}
	c.status = status
}

// WriteSnapshot saves the most recent frame to path. Safe to call from
// other goroutines (the d-bus service).
func (c *Controller) WriteSnapshot(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest.Empty() {
		return errors.New("no frames yet")
	}
	if ok := gocv.IMWrite(path, c.latest); !ok {
		return fmt.Errorf("could not write snapshot to %s", path)
	}
	return nil
}

// Status summarises the controller for the d-bus service.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) finish() {
	if err := c.sm.Stop(); err != nil {
		c.log.Error().Err(err).Msg("finalising recording on shutdown")
	}
	if c.window != nil {
		c.window.Close()
		c.window = nil
	}
	c.log.Info().
		Uint64("ticks", c.ticks).
		Uint64("skipped_reads", c.skipped).
		Msg("controller stopped")
}
