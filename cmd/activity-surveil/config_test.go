package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shepherd1226/Activity-Surveil/activity"
	"github.com/Shepherd1226/Activity-Surveil/capture"
	"github.com/Shepherd1226/Activity-Surveil/motion"
	"github.com/Shepherd1226/Activity-Surveil/sound"
	"github.com/Shepherd1226/Activity-Surveil/throttle"
)

func TestAllDefaults(t *testing.T) {
	conf, err := ParseConfig([]byte(""))
	require.NoError(t, err)
	require.NoError(t, conf.Validate())

	assert.Equal(t, Config{
		OutputDir:      "videos",
		MinDiskSpace:   200,
		Format:         "mp4",
		Codec:          "",
		WriteQueueSize: 64,
		Camera: capture.CameraConfig{
			Index:  0,
			Width:  1280,
			Height: 720,
			FPS:    10,
		},
		Motion: motion.Config{
			Disabled:         false,
			DeltaThresh:      20,
			BlurKernel:       5,
			DilateIterations: 3,
		},
		Sound: sound.Config{
			Disabled:   false,
			Device:     0,
			SampleRate: 44100,
			Channels:   2,
			ChunkSize:  4096,
			QueueSize:  32,
		},
		Trigger: activity.Config{
			Method:          activity.TriggerEither,
			Record:          activity.RecordBoth,
			MotionThreshold: 30000,
			SoundThreshold:  500,
			NoActivitySecs:  10,
		},
		Throttler: throttle.Config{
			Activate:      false,
			BucketSecs:    600,
			MinRefillSecs: 1200,
		},
	}, *conf)
}

func TestAllSet(t *testing.T) {
	// All config set at non-default values.
	config := []byte(`
output-dir: "/some/where"
min-disk-space: 321
format: "avi"
codec: "xvid"
write-queue-size: 16
camera:
    index: 2
    width: 640
    height: 480
    fps: 25
motion:
    disabled: false
    delta-thresh: 35
    blur-kernel: 7
    dilate-iterations: 1
sound:
    disabled: false
    device: 1
    sample-rate: 48000
    channels: 1
    chunk-size: 2048
    queue-size: 8
trigger:
    method: "sound"
    record: "audio"
    motion-threshold: 12000
    sound-threshold: 900
    no-activity-secs: 30
throttler:
    activate: true
    bucket-secs: 120
    min-refill-secs: 240
`)

	conf, err := ParseConfig(config)
	require.NoError(t, err)
	require.NoError(t, conf.Validate())

	assert.Equal(t, Config{
		OutputDir:      "/some/where",
		MinDiskSpace:   321,
		Format:         "avi",
		Codec:          "xvid",
		WriteQueueSize: 16,
		Camera: capture.CameraConfig{
			Index:  2,
			Width:  640,
			Height: 480,
			FPS:    25,
		},
		Motion: motion.Config{
			Disabled:         false,
			DeltaThresh:      35,
			BlurKernel:       7,
			DilateIterations: 1,
		},
		Sound: sound.Config{
			Disabled:   false,
			Device:     1,
			SampleRate: 48000,
			Channels:   1,
			ChunkSize:  2048,
			QueueSize:  8,
		},
		Trigger: activity.Config{
			Method:          activity.TriggerSound,
			Record:          activity.RecordAudio,
			MotionThreshold: 12000,
			SoundThreshold:  900,
			NoActivitySecs:  30,
		},
		Throttler: throttle.Config{
			Activate:      true,
			BucketSecs:    120,
			MinRefillSecs: 240,
		},
	}, *conf)
}

func TestSectionErrorsStopConfigParsing(t *testing.T) {
	conf, err := ParseConfig([]byte(`
camera:
    fps: 0
`))
	assert.Nil(t, conf)
	assert.EqualError(t, err, "fps must be positive")
}

func TestDisabledSensorsRejectedByTriggerMethod(t *testing.T) {
	conf, err := ParseConfig([]byte(`
motion:
    disabled: true
trigger:
    method: "motion"
    record: "video"
`))
	assert.Nil(t, conf)
	assert.Error(t, err)

	conf, err = ParseConfig([]byte(`
sound:
    disabled: true
trigger:
    method: "sound"
    record: "video"
`))
	assert.Nil(t, conf)
	assert.Error(t, err)

	conf, err = ParseConfig([]byte(`
motion:
    disabled: true
sound:
    disabled: true
trigger:
    method: "either"
    record: "video"
`))
	assert.Nil(t, conf)
	assert.Error(t, err)

	// Either with one sensor still alive is fine.
	conf, err = ParseConfig([]byte(`
sound:
    disabled: true
trigger:
    method: "either"
    record: "video"
`))
	require.NoError(t, err)
	assert.NotNil(t, conf)
}

func TestAudioRecordingNeedsSoundDevice(t *testing.T) {
	_, err := ParseConfig([]byte(`
sound:
    disabled: true
trigger:
    method: "motion"
    record: "both"
`))
	assert.Error(t, err)

	_, err = ParseConfig([]byte(`
sound:
    disabled: true
trigger:
    method: "motion"
    record: "video"
`))
	assert.NoError(t, err)
}

func TestRecorderConfigAssembly(t *testing.T) {
	conf, err := ParseConfig([]byte(""))
	require.NoError(t, err)

	recConf := conf.RecorderConfig()
	require.NoError(t, recConf.Validate())
	assert.Equal(t, "videos", recConf.OutputDir)
	assert.Equal(t, activity.RecordBoth, recConf.Content)
	assert.Equal(t, "mp4", recConf.Format)
	assert.Len(t, recConf.Codec, 4)
	assert.Equal(t, float64(10), recConf.FPS)
	assert.Equal(t, 1280, recConf.Width)
	assert.Equal(t, 720, recConf.Height)
	assert.Equal(t, 44100, recConf.SampleRate)
	assert.Equal(t, 2, recConf.Channels)
	assert.Equal(t, 64, recConf.QueueSize)
}

func TestPlatformCodec(t *testing.T) {
	assert.Equal(t, "mp4v", platformCodec("linux"))
	assert.Equal(t, "mp4v", platformCodec("windows"))
	assert.Equal(t, "avc1", platformCodec("darwin"))
}
