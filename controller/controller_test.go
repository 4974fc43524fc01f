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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shepherd1226/Activity-Surveil/activity"
	"github.com/Shepherd1226/Activity-Surveil/capture"
	"github.com/Shepherd1226/Activity-Surveil/sound"
)

// scriptedSource produces one frame per scheduled timestamp, then cancels
// the controller's context so Run returns.
type scriptedSource struct {
	times  []time.Time
	errs   map[int]error
	calls  int
	cancel context.CancelFunc
}

func (s *scriptedSource) NextFrame(f *capture.Frame) error {
	i := s.calls
	s.calls++
	if i >= len(s.times) {
		s.cancel()
		return errors.New("no more frames")
	}
	if err := s.errs[i]; err != nil {
		return err
	}
	f.Timestamp = s.times[i]
	return nil
}

// scriptedScorer returns one score per successful frame read.
type scriptedScorer struct {
	scores []float64
	calls  int
}

func (s *scriptedScorer) Score(f *capture.Frame) (float64, bool) {
	i := s.calls
	s.calls++
	if i >= len(s.scores) {
		return 0, true
	}
	return s.scores[i], true
}

type scriptedAudio struct {
	batches [][]sound.Chunk
	calls   int
}

func (s *scriptedAudio) Drain() []sound.Chunk {
	i := s.calls
	s.calls++
	if i >= len(s.batches) {
		return nil
	}
	return s.batches[i]
}

func motionConfig(threshold float64, timeoutSecs int) *activity.Config {
	return &activity.Config{
		Method:          activity.TriggerMotion,
		Record:          activity.RecordVideo,
		MotionThreshold: threshold,
		SoundThreshold:  500,
		NoActivitySecs:  timeoutSecs,
	}
}

func times(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = t0.Add(time.Duration(i) * time.Second)
	}
	return out
}

func runController(t *testing.T, conf *activity.Config, source *scriptedSource,
	audio AudioSource, scorer FrameScorer, rec *fakeRecorder) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source.cancel = cancel

	sm := NewStateMachine(rec, conf.NoActivityTimeout(), nil, zerolog.Nop())
	c := New(conf, source, audio, scorer, sm, time.Microsecond, Options{}, zerolog.Nop())
	return c.Run(ctx)
}

func TestMotionTriggersRecordingAndFramesAreForwarded(t *testing.T) {
	conf := motionConfig(500, 3)
	source := &scriptedSource{times: times(8)}
	scorer := &scriptedScorer{scores: []float64{0, 600, 600, 0, 0, 0, 0, 0}}
	rec := new(fakeRecorder)

	require.NoError(t, runController(t, conf, source, nil, scorer, rec))

	assert.Equal(t, 1, rec.starts)
	assert.Equal(t, 1, rec.stops)
	// Session is open from second 1 until the timeout closes it at second
	// 5; the closing tick itself is not written.
	assert.Equal(t, 4, rec.frames)
}

func TestNoActivityMeansNoSession(t *testing.T) {
	conf := motionConfig(500, 3)
	source := &scriptedSource{times: times(5)}
	scorer := &scriptedScorer{scores: []float64{0, 0, 0, 0, 0}}
	rec := new(fakeRecorder)

	require.NoError(t, runController(t, conf, source, nil, scorer, rec))

	assert.Equal(t, 0, rec.starts)
	assert.Equal(t, 0, rec.frames)
}

func TestShutdownWhileRecordingFinalizesSession(t *testing.T) {
	conf := motionConfig(500, 60)
	source := &scriptedSource{times: times(3)}
	scorer := &scriptedScorer{scores: []float64{600, 600, 600}}
	rec := new(fakeRecorder)

	require.NoError(t, runController(t, conf, source, nil, scorer, rec))

	// The context was cancelled with the session still open; Run must
	// have forced it closed on the way out.
	assert.Equal(t, 1, rec.starts)
	assert.Equal(t, 1, rec.stops)
	assert.False(t, rec.recording)
}

func TestTransientReadFailuresAreSkipped(t *testing.T) {
	conf := motionConfig(500, 3)
	source := &scriptedSource{
		times: times(6),
		errs: map[int]error{
			1: capture.ErrEmptyFrame,
			2: capture.ErrEmptyFrame,
		},
	}
	scorer := &scriptedScorer{scores: []float64{0, 0, 0, 0}}
	rec := new(fakeRecorder)

	require.NoError(t, runController(t, conf, source, nil, scorer, rec))

	// Failed reads are never scored.
	assert.Equal(t, 4, scorer.calls)
	assert.Equal(t, 0, rec.starts)
}

func TestPersistentReadFailureIsFatal(t *testing.T) {
	conf := motionConfig(500, 3)
	errs := make(map[int]error)
	ts := times(maxConsecutiveReadFailures + 1)
	for i := range ts {
		errs[i] = capture.ErrEmptyFrame
	}
	source := &scriptedSource{times: ts, errs: errs}
	rec := new(fakeRecorder)

	err := runController(t, conf, source, nil, &scriptedScorer{}, rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camera source lost")
}

func TestSoundTriggerForwardsAudioChunks(t *testing.T) {
	conf := &activity.Config{
		Method:          activity.TriggerSound,
		Record:          activity.RecordAudio,
		MotionThreshold: 500,
		SoundThreshold:  100,
		NoActivitySecs:  3,
	}

	loudSamples := make([]int16, 256)
	for i := range loudSamples {
		loudSamples[i] = 8000
	}
	loud := sound.Chunk{Samples: loudSamples}
	quiet := sound.Chunk{Samples: make([]int16, 256)}

	source := &scriptedSource{times: times(6)}
	audio := &scriptedAudio{batches: [][]sound.Chunk{
		{quiet}, {loud, loud}, {quiet}, {quiet}, {quiet}, {quiet},
	}}
	rec := new(fakeRecorder)

	require.NoError(t, runController(t, conf, source, audio, nil, rec))

	assert.Equal(t, 1, rec.starts)
	// Chunks forwarded while recording: the two loud ones plus the quiet
	// ones inside the grace period. The closing tick is not written.
	assert.Equal(t, 4, rec.chunks)
	assert.Equal(t, 1, rec.stops)
}
