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
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/Shepherd1226/Activity-Surveil/capture"
	"github.com/Shepherd1226/Activity-Surveil/loglimiter"
	"github.com/Shepherd1226/Activity-Surveil/sound"
)

const (
	tempExt        = ".temp"
	minLogInterval = time.Minute
)

// NewFileRecorder returns a FileRecorder writing sessions under
// conf.OutputDir. Video goes to a container via OpenCV, audio to WAV; when
// both are recorded and ffmpeg is available the two are muxed into a
// single container on session close.
func NewFileRecorder(conf *Config, log zerolog.Logger) *FileRecorder {
	return &FileRecorder{
		conf: conf,
		log:  log,
		lim:  loglimiter.New(log, minLogInterval),
		mux:  findMuxer(log),
	}
}

// FileRecorder writes one session at a time. All methods are called from
// the controller loop thread only; the internal writer goroutine is the
// sole toucher of the open sinks.
type FileRecorder struct {
	conf    *Config
	log     zerolog.Logger
	lim     *loglimiter.LogLimiter
	mux     *muxer
	session *session
}

// CheckCanRecord verifies there is enough free disk space for a new
// recording.
func (fr *FileRecorder) CheckCanRecord() error {
	if fr.conf.MinDiskSpace == 0 {
		return nil
	}
	enough, err := checkDiskSpace(fr.conf.MinDiskSpace, fr.conf.OutputDir)
	if err != nil {
		return fmt.Errorf("checking disk space: %w", err)
	}
	if !enough {
		return fmt.Errorf("less than %d MB free in %s", fr.conf.MinDiskSpace, fr.conf.OutputDir)
	}
	return nil
}

// StartRecording opens the sinks for a new session named after the start
// time. Opening is all-or-nothing: if any configured sink fails, whatever
// did open is closed and removed before the error is returned.
func (fr *FileRecorder) StartRecording(start time.Time) error {
	if fr.session != nil {
		return fmt.Errorf("recording already in progress")
	}

	dir := filepath.Join(fr.conf.OutputDir, start.Format("20060102"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating recording directory: %w", err)
	}

	s := &session{
		conf:  fr.conf,
		start: start,
		dir:   dir,
		base:  start.Format("20060102_150405"),
	}

	if fr.conf.Content.IncludesVideo() {
		s.videoTemp = filepath.Join(dir, s.base+"."+fr.conf.Format+tempExt)
		video, err := gocv.VideoWriterFile(s.videoTemp, fr.conf.Codec,
			fr.conf.FPS, fr.conf.Width, fr.conf.Height, true)
		if err != nil {
			return fmt.Errorf("opening video sink: %w", err)
		}
		if !video.IsOpened() {
			video.Close()
			os.Remove(s.videoTemp)
			return fmt.Errorf("video sink did not open (codec %q)", fr.conf.Codec)
		}
		s.video = video
	}

	if fr.conf.Content.IncludesAudio() {
		s.audioTemp = filepath.Join(dir, s.base+".wav"+tempExt)
		f, err := os.Create(s.audioTemp)
		if err != nil {
			s.discard()
			return fmt.Errorf("opening audio sink: %w", err)
		}
		s.audioFile = f
		s.audio = wav.NewEncoder(f, fr.conf.SampleRate, 16, fr.conf.Channels, 1)
	}

	s.writes = make(chan writeReq, fr.conf.QueueSize)
	s.done = make(chan struct{})
	go s.writeLoop()

	fr.log.Info().Str("file", filepath.Join(dir, s.base)).Msg("recording started")
	fr.session = s
	return nil
}

// WriteFrame hands the frame to the session's writer. The frame data is
// copied so the caller can reuse its buffer. If the write queue is full
// the frame is dropped and counted rather than blocking the tick.
func (fr *FileRecorder) WriteFrame(frame *capture.Frame) error {
	s := fr.session
	if s == nil || s.video == nil {
		return nil
	}
	if s.failed.Load() {
		return ErrWriteFailed
	}
	mat := frame.Mat.Clone()
	select {
	case s.writes <- writeReq{frame: &mat, ts: frame.Timestamp}:
	default:
		mat.Close()
		s.droppedFrames++
		fr.lim.Print("video sink is slow, dropping frames")
	}
	return nil
}

// WriteAudio hands a captured chunk to the session's writer, with the same
// back-pressure policy as WriteFrame.
func (fr *FileRecorder) WriteAudio(chunk sound.Chunk) error {
	s := fr.session
	if s == nil || s.audio == nil {
		return nil
	}
	if s.failed.Load() {
		return ErrWriteFailed
	}
	select {
	case s.writes <- writeReq{chunk: chunk.Samples, ts: chunk.Timestamp}:
	default:
		s.droppedChunks++
		fr.lim.Print("audio sink is slow, dropping chunks")
	}
	return nil
}

// StopRecording drains pending writes, flushes and closes the sinks and
// moves the output to its final name. Calling it with no session open is a
// no-op, which makes a second call after a successful stop harmless.
func (fr *FileRecorder) StopRecording() error {
	s := fr.session
	if s == nil {
		return nil
	}
	// The session reference is dropped first so the recorder returns to
	// idle even if finalising fails.
	fr.session = nil
	return s.finalize(fr.log, fr.mux)
}

type writeReq struct {
	frame *gocv.Mat // nil for audio requests
	chunk []int16
	ts    time.Time
}

type session struct {
	conf  *Config
	start time.Time
	dir   string
	base  string

	videoTemp string
	audioTemp string
	video     *gocv.VideoWriter
	audioFile *os.File
	audio     *wav.Encoder

	writes chan writeReq
	done   chan struct{}
	failed atomic.Bool

	// Owned by the writer goroutine until done is closed.
	writeErr error
	frames   uint64
	samples  uint64
	lost     uint64
	// Owned by the controller thread.
	droppedFrames uint64
	droppedChunks uint64
}

// writeLoop is the only code that touches the open sinks. It exits when
// the write channel is closed. After the first write failure it keeps
// draining, counting what is lost, so the controller never blocks.
func (s *session) writeLoop() {
	defer close(s.done)
	for req := range s.writes {
		if s.failed.Load() {
			s.lost++
			if req.frame != nil {
				req.frame.Close()
			}
			continue
		}
		if req.frame != nil {
			err := s.video.Write(*req.frame)
			req.frame.Close()
			if err != nil {
				s.fail(fmt.Errorf("writing frame: %w", err))
				continue
			}
			s.frames++
		} else {
			buf := &audio.IntBuffer{
				Format: &audio.Format{
					NumChannels: s.conf.Channels,
					SampleRate:  s.conf.SampleRate,
				},
				Data:           intSamples(req.chunk),
				SourceBitDepth: 16,
			}
			if err := s.audio.Write(buf); err != nil {
				s.fail(fmt.Errorf("writing audio: %w", err))
				continue
			}
			s.samples += uint64(len(req.chunk))
		}
	}
}

func (s *session) fail(err error) {
	s.writeErr = err
	s.lost++
	s.failed.Store(true)
}

// discard closes whatever sinks opened and removes their files. Used when
// opening the session fails partway.
func (s *session) discard() {
	if s.video != nil {
		s.video.Close()
		os.Remove(s.videoTemp)
		s.video = nil
	}
	if s.audioFile != nil {
		s.audioFile.Close()
		os.Remove(s.audioTemp)
		s.audioFile = nil
		s.audio = nil
	}
}

// finalize flushes and closes all sinks exactly once, then renames or
// muxes the temp files into their final names.
func (s *session) finalize(log zerolog.Logger, mux *muxer) error {
	close(s.writes)
	<-s.done

	var firstErr error
	keep := func(err error) {
		if firstErr == nil && err != nil {
			firstErr = err
		}
	}
	keep(s.writeErr)

	if s.video != nil {
		keep(s.video.Close())
		s.video = nil
	}
	if s.audio != nil {
		keep(s.audio.Close())
		keep(s.audioFile.Close())
		s.audio = nil
		s.audioFile = nil
	}

	finalName, err := s.publish(mux)
	keep(err)

	event := log.Info()
	if firstErr != nil {
		event = log.Error().AnErr("reason", firstErr).
			Uint64("writes_lost", s.lost)
	}
	event.Str("file", finalName).
		Uint64("frames", s.frames).
		Uint64("dropped_frames", s.droppedFrames).
		Uint64("dropped_chunks", s.droppedChunks).
		Dur("video_duration", s.videoDuration()).
		Dur("audio_duration", s.audioDuration()).
		Msg("recording stopped")

	return firstErr
}

// publish moves the temp files into place: a single muxed container when
// both streams were recorded and ffmpeg is present, separate files
// otherwise.
func (s *session) publish(mux *muxer) (string, error) {
	finalVideo := filepath.Join(s.dir, s.base+"."+s.conf.Format)
	finalAudio := filepath.Join(s.dir, s.base+".wav")

	if s.videoTemp != "" && s.audioTemp != "" && mux != nil {
		if err := mux.combine(s.videoTemp, s.audioTemp, finalVideo); err == nil {
			os.Remove(s.videoTemp)
			os.Remove(s.audioTemp)
			return finalVideo, nil
		}
		// Muxing failed; keep both streams as separate files instead.
	}

	name := ""
	if s.videoTemp != "" {
		if err := os.Rename(s.videoTemp, finalVideo); err != nil {
			return finalVideo, err
		}
		name = finalVideo
	}
	if s.audioTemp != "" {
		if err := os.Rename(s.audioTemp, finalAudio); err != nil {
			return finalAudio, err
		}
		if name == "" {
			name = finalAudio
		}
	}
	return name, nil
}

// videoDuration and audioDuration report how much media was actually
// written, for spotting audio/video drift in the logs.
func (s *session) videoDuration() time.Duration {
	if s.conf.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(s.frames) / s.conf.FPS * float64(time.Second))
}

func (s *session) audioDuration() time.Duration {
	if s.conf.SampleRate <= 0 || s.conf.Channels <= 0 {
		return 0
	}
	perSec := float64(s.conf.SampleRate * s.conf.Channels)
	return time.Duration(float64(s.samples) / perSec * float64(time.Second))
}

func intSamples(in []int16) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

// DeleteTempFiles removes recordings that never finished, left behind by a
// crash or power loss.
func DeleteTempFiles(outputDir string) error {
	matches, _ := filepath.Glob(filepath.Join(outputDir, "*", "*"+tempExt))
	for _, filename := range matches {
		if err := os.Remove(filename); err != nil {
			return err
		}
	}
	return nil
}

func checkDiskSpace(mb uint64, dir string) (bool, error) {
	var fs syscall.Statfs_t
	if err := syscall.Statfs(dir, &fs); err != nil {
		return false, err
	}
	return fs.Bavail*uint64(fs.Bsize)/1024/1024 >= mb, nil
}
