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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	arg "github.com/alexflint/go-arg"
	"github.com/coreos/go-systemd/daemon"
	"github.com/rs/zerolog"

	"github.com/Shepherd1226/Activity-Surveil/activity"
	"github.com/Shepherd1226/Activity-Surveil/capture"
	"github.com/Shepherd1226/Activity-Surveil/controller"
	"github.com/Shepherd1226/Activity-Surveil/motion"
	"github.com/Shepherd1226/Activity-Surveil/recorder"
	"github.com/Shepherd1226/Activity-Surveil/sound"
	"github.com/Shepherd1226/Activity-Surveil/throttle"
)

var version = "<not set>"

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	Show       bool   `arg:"-s,--show" help:"show a live preview window (ESC to quit)"`
	Debug      bool   `arg:"-d,--debug" help:"log sensor scores every frame"`
	Verbose    bool   `arg:"-v,--verbose" help:"make logging more verbose"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = "/etc/activity-surveil.yaml"
	arg.MustParse(&args)
	return args
}

func main() {
	args := procArgs()
	log := newLogger(args.Verbose || args.Debug)

	if err := runMain(args, log); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(out).With().Timestamp().Logger().Level(level)
}

func runMain(args Args, log zerolog.Logger) error {
	log.Info().Str("version", version).Msg("running")

	conf, err := ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	logConfig(conf, log)

	if err := os.MkdirAll(conf.OutputDir, 0755); err != nil {
		return err
	}
	log.Info().Msg("deleting temp files")
	if err := recorder.DeleteTempFiles(conf.OutputDir); err != nil {
		return err
	}

	cam, err := capture.OpenCamera(&conf.Camera, log)
	if err != nil {
		return err
	}
	defer cam.Close()

	var scorer controller.FrameScorer
	if conf.Trigger.Method.UsesMotion() && !conf.Motion.Disabled {
		detector := motion.NewDetector(conf.Motion)
		defer detector.Close()
		scorer = detector
	}

	var audio controller.AudioSource
	if !conf.Sound.Disabled &&
		(conf.Trigger.Method.UsesSound() || conf.Trigger.Record.IncludesAudio()) {
		src, err := sound.Open(&conf.Sound, log)
		if err != nil {
			return err
		}
		defer src.Close()
		if err := src.Start(); err != nil {
			return err
		}
		audio = src
	}

	rec := buildRecorder(conf, log)
	sm := controller.NewStateMachine(rec, conf.Trigger.NoActivityTimeout(), nil, log)
	ctrl := controller.New(
		&conf.Trigger, cam, audio, scorer, sm,
		conf.Camera.FrameInterval(),
		controller.Options{ShowPreview: args.Show, Debug: args.Debug},
		log)

	// No system bus on most desktops; the snapshot service is optional there.
	if err := startService(ctrl, conf.OutputDir, log); err != nil {
		log.Warn().Err(err).Msg("d-bus service not started")
	}

	daemon.SdNotify(false, "READY=1")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ctrl.Run(ctx)
}

func buildRecorder(conf *Config, log zerolog.Logger) recorder.Recorder {
	if conf.Trigger.Record == activity.RecordNone {
		return new(recorder.NoWriteRecorder)
	}

	recConf := conf.RecorderConfig()
	var rec recorder.Recorder = recorder.NewFileRecorder(&recConf, log)

	if conf.Throttler.Activate {
		// One bucket unit per video frame, or per audio chunk for
		// audio-only output.
		unitsPerSec := conf.Camera.FPS
		consumeOnAudio := false
		if !conf.Trigger.Record.IncludesVideo() {
			unitsPerSec = float64(conf.Sound.SampleRate) / float64(conf.Sound.ChunkSize)
			consumeOnAudio = true
		}
		rec = throttle.NewThrottledRecorder(
			rec, &conf.Throttler, conf.Trigger.NoActivitySecs,
			unitsPerSec, consumeOnAudio, nil, log)
	}
	return rec
}

func logConfig(conf *Config, log zerolog.Logger) {
	log.Info().
		Str("output_dir", conf.OutputDir).
		Uint64("min_disk_space_mb", conf.MinDiskSpace).
		Str("method", string(conf.Trigger.Method)).
		Str("record", string(conf.Trigger.Record)).
		Float64("motion_threshold", conf.Trigger.MotionThreshold).
		Float64("sound_threshold", conf.Trigger.SoundThreshold).
		Int("no_activity_secs", conf.Trigger.NoActivitySecs).
		Msg("trigger configuration")
	log.Info().
		Int("camera", conf.Camera.Index).
		Int("width", conf.Camera.Width).
		Int("height", conf.Camera.Height).
		Float64("fps", conf.Camera.FPS).
		Bool("motion_disabled", conf.Motion.Disabled).
		Bool("sound_disabled", conf.Sound.Disabled).
		Bool("throttler", conf.Throttler.Activate).
		Msg("capture configuration")
}
