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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shepherd1226/Activity-Surveil/activity"
	"github.com/Shepherd1226/Activity-Surveil/sound"
)

var testStart = time.Date(2024, 3, 15, 10, 30, 45, 0, time.Local)

func audioOnlyConfig(dir string) *Config {
	return &Config{
		OutputDir:  dir,
		Content:    activity.RecordAudio,
		SampleRate: 44100,
		Channels:   2,
		QueueSize:  16,
	}
}

func newTestRecorder(t *testing.T, conf *Config) *FileRecorder {
	t.Helper()
	require.NoError(t, conf.Validate())
	return NewFileRecorder(conf, zerolog.Nop())
}

func testChunk(n int) sound.Chunk {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(i % 100)
	}
	return sound.Chunk{Samples: samples, Timestamp: time.Now()}
}

func TestAudioSessionLifecycle(t *testing.T) {
	dir := t.TempDir()
	fr := newTestRecorder(t, audioOnlyConfig(dir))

	require.NoError(t, fr.StartRecording(testStart))
	for i := 0; i < 5; i++ {
		require.NoError(t, fr.WriteAudio(testChunk(4096)))
	}
	require.NoError(t, fr.StopRecording())

	finalPath := filepath.Join(dir, "20240315", "20240315_103045.wav")
	info, err := os.Stat(finalPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(5*4096*2))

	// No temp files remain.
	temps, _ := filepath.Glob(filepath.Join(dir, "*", "*"+tempExt))
	assert.Empty(t, temps)
}

func TestStopRecordingIsIdempotent(t *testing.T) {
	fr := newTestRecorder(t, audioOnlyConfig(t.TempDir()))

	require.NoError(t, fr.StartRecording(testStart))
	require.NoError(t, fr.WriteAudio(testChunk(1024)))
	require.NoError(t, fr.StopRecording())
	require.NoError(t, fr.StopRecording())
}

func TestStopWithoutStartIsNoop(t *testing.T) {
	fr := newTestRecorder(t, audioOnlyConfig(t.TempDir()))
	assert.NoError(t, fr.StopRecording())
}

func TestStartWhileRecordingFails(t *testing.T) {
	fr := newTestRecorder(t, audioOnlyConfig(t.TempDir()))

	require.NoError(t, fr.StartRecording(testStart))
	assert.Error(t, fr.StartRecording(testStart.Add(time.Second)))
	require.NoError(t, fr.StopRecording())
}

func TestWritesIgnoredWhenIdle(t *testing.T) {
	fr := newTestRecorder(t, audioOnlyConfig(t.TempDir()))
	assert.NoError(t, fr.WriteAudio(testChunk(1024)))
}

func TestSlowSinkDropsInsteadOfBlocking(t *testing.T) {
	conf := audioOnlyConfig(t.TempDir())
	conf.QueueSize = 1
	fr := newTestRecorder(t, conf)

	require.NoError(t, fr.StartRecording(testStart))
	// Far more chunks than the queue can hold; must never block.
	for i := 0; i < 1000; i++ {
		require.NoError(t, fr.WriteAudio(testChunk(64)))
	}
	require.NoError(t, fr.StopRecording())
}

func TestStartRecordingFailsOnUnwritableDir(t *testing.T) {
	// A regular file where the output dir should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	conf := audioOnlyConfig(filepath.Join(blocker, "videos"))
	fr := newTestRecorder(t, conf)
	assert.Error(t, fr.StartRecording(testStart))

	// The recorder stays idle and can retry once the problem is fixed.
	conf.OutputDir = t.TempDir()
	require.NoError(t, fr.StartRecording(testStart))
	require.NoError(t, fr.StopRecording())
}

func TestCheckCanRecordWithImpossibleSpaceRequirement(t *testing.T) {
	conf := audioOnlyConfig(t.TempDir())
	conf.MinDiskSpace = 1 << 40 // an exabyte of free space, roughly
	fr := newTestRecorder(t, conf)
	assert.Error(t, fr.CheckCanRecord())
}

func TestDeleteTempFiles(t *testing.T) {
	dir := t.TempDir()
	dateDir := filepath.Join(dir, "20240315")
	require.NoError(t, os.MkdirAll(dateDir, 0755))

	stale := filepath.Join(dateDir, "20240315_103045.wav"+tempExt)
	keep := filepath.Join(dateDir, "20240315_103045.wav")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0644))

	require.NoError(t, DeleteTempFiles(dir))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(keep)
	assert.NoError(t, err)
}

func TestConfigValidate(t *testing.T) {
	conf := audioOnlyConfig("out")
	require.NoError(t, conf.Validate())

	conf = audioOnlyConfig("")
	assert.Error(t, conf.Validate())

	conf = audioOnlyConfig("out")
	conf.SampleRate = 0
	assert.Error(t, conf.Validate())

	conf = &Config{
		OutputDir: "out",
		Content:   activity.RecordVideo,
		Format:    "mp4",
		Codec:     "mp4v",
		FPS:       10,
		Width:     1280,
		Height:    720,
		QueueSize: 16,
	}
	require.NoError(t, conf.Validate())

	conf.Codec = "bad"
	assert.Error(t, conf.Validate())
}

func TestNoWriteRecorderNeverCreatesFiles(t *testing.T) {
	var rec Recorder = new(NoWriteRecorder)

	require.NoError(t, rec.CheckCanRecord())
	require.NoError(t, rec.StartRecording(testStart))
	require.NoError(t, rec.WriteAudio(testChunk(64)))
	require.NoError(t, rec.StopRecording())
}
