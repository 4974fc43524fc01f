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

package controller

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shepherd1226/Activity-Surveil/capture"
	"github.com/Shepherd1226/Activity-Surveil/loglimiter"
	"github.com/Shepherd1226/Activity-Surveil/recorder"
	"github.com/Shepherd1226/Activity-Surveil/sound"
)

const minLogInterval = time.Minute

type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// Listener is notified of detections and session boundaries. Used for
// telemetry; all callbacks run on the controller loop thread.
type Listener interface {
	ActivityDetected()
	RecordingStarted()
	RecordingEnded()
}

// NewStateMachine returns a state machine in StateIdle. timeout is the
// no-activity grace period measured from the last observed activity.
func NewStateMachine(rec recorder.Recorder, timeout time.Duration, listener Listener, log zerolog.Logger) *StateMachine {
	return &StateMachine{
		recorder: rec,
		timeout:  timeout,
		listener: listener,
		log:      log,
		lim:      loglimiter.New(log, minLogInterval),
	}
}

// StateMachine owns the Idle/Recording state and drives the recorder
// through session start and stop. One Tick per controller tick; writes for
// a tick always happen after that tick's transition.
type StateMachine struct {
	recorder recorder.Recorder
	timeout  time.Duration
	listener Listener
	log      zerolog.Logger
	lim      *loglimiter.LogLimiter

	state        State
	startTime    time.Time
	lastActivity time.Time
}

func (sm *StateMachine) State() State {
	return sm.state
}

// StartTime returns when the current session began. Zero when idle.
func (sm *StateMachine) StartTime() time.Time {
	if sm.state != StateRecording {
		return time.Time{}
	}
	return sm.startTime
}

// Tick advances the state machine for one observation at time t. reason
// names the sensor that fired, for the session start log.
func (sm *StateMachine) Tick(t time.Time, active bool, reason string) {
	if active && sm.listener != nil {
		sm.listener.ActivityDetected()
	}

	switch sm.state {
	case StateIdle:
		if active {
			sm.startRecording(t, reason)
		}
	case StateRecording:
		if active {
			sm.lastActivity = t
		} else if t.Sub(sm.lastActivity) >= sm.timeout {
			// The timeout is inclusive: equality ends the session.
			sm.stopRecording()
		}
	}
}

// WriteFrame forwards a frame to the active session. A poisoned sink
// (write failure mid-session) force-closes the session, as if the timeout
// had elapsed.
func (sm *StateMachine) WriteFrame(frame *capture.Frame) {
	if sm.state != StateRecording {
		return
	}
	if err := sm.recorder.WriteFrame(frame); err != nil {
		sm.handleWriteError(err)
	}
}

func (sm *StateMachine) WriteAudio(chunk sound.Chunk) {
	if sm.state != StateRecording {
		return
	}
	if err := sm.recorder.WriteAudio(chunk); err != nil {
		sm.handleWriteError(err)
	}
}

func (sm *StateMachine) handleWriteError(err error) {
	if errors.Is(err, recorder.ErrWriteFailed) {
		sm.log.Error().Err(err).Msg("session sink failed, closing recording early")
		sm.stopRecording()
		return
	}
	sm.lim.Printf("failed to write to recording: %v", err)
}

// Stop forces an open session closed. Called on shutdown so no output file
// is ever left unflushed.
func (sm *StateMachine) Stop() error {
	if sm.state != StateRecording {
		return nil
	}
	sm.stopRecording()
	return nil
}

func (sm *StateMachine) startRecording(t time.Time, reason string) {
	if err := sm.recorder.CheckCanRecord(); err != nil {
		sm.lim.Printf("recording not started: %v", err)
		return
	}
	if err := sm.recorder.StartRecording(t); err != nil {
		// Stay idle; the next qualifying activity tick retries.
		sm.lim.Printf("can't start recording: %v", err)
		return
	}
	sm.state = StateRecording
	sm.startTime = t
	sm.lastActivity = t
	sm.log.Info().Str("trigger", reason).Time("start", t).Msg("activated")
	if sm.listener != nil {
		sm.listener.RecordingStarted()
	}
}

func (sm *StateMachine) stopRecording() {
	// A close failure is reported but the state machine still returns to
	// idle; staying in recording forever would be worse than the leak.
	if err := sm.recorder.StopRecording(); err != nil {
		sm.log.Error().Err(err).Msg("failed to finalise recording")
	}
	sm.state = StateIdle
	sm.startTime = time.Time{}
	sm.lastActivity = time.Time{}
	sm.log.Info().Msg("terminated")
	if sm.listener != nil {
		sm.listener.RecordingEnded()
	}
}
