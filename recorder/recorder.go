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

// Package recorder persists one recording session at a time to disk.
package recorder

import (
	"errors"
	"time"

	"github.com/Shepherd1226/Activity-Surveil/capture"
	"github.com/Shepherd1226/Activity-Surveil/sound"
)

// ErrWriteFailed marks a sink write failure that poisons the whole
// session. The state machine force-closes the session when it sees it.
var ErrWriteFailed = errors.New("recording sink write failed")

// Recorder accepts frames and audio chunks between StartRecording and
// StopRecording. Implementations are driven from the controller loop only.
type Recorder interface {
	CheckCanRecord() error
	StartRecording(start time.Time) error
	StopRecording() error
	WriteFrame(frame *capture.Frame) error
	WriteAudio(chunk sound.Chunk) error
}

// NoWriteRecorder discards everything. Used when record content is "none"
// so the state machine still runs and logs transitions without ever
// creating a file.
type NoWriteRecorder struct{}

func (*NoWriteRecorder) CheckCanRecord() error                { return nil }
func (*NoWriteRecorder) StartRecording(start time.Time) error { return nil }
func (*NoWriteRecorder) StopRecording() error                 { return nil }
func (*NoWriteRecorder) WriteFrame(frame *capture.Frame) error { return nil }
func (*NoWriteRecorder) WriteAudio(chunk sound.Chunk) error    { return nil }
