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

package sound

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

// Open initialises portaudio and opens an input stream on the configured
// device. Captured chunks are pushed to an internal bounded queue; the
// capture callback never blocks on the consumer.
func Open(conf *Config, log zerolog.Logger) (*Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialising portaudio: %w", err)
	}

	dev, err := inputDevice(conf.Device)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = conf.Channels
	params.SampleRate = float64(conf.SampleRate)
	params.FramesPerBuffer = conf.ChunkSize

	src := &Source{
		queue: NewQueue(conf.QueueSize),
		log:   log,
	}
	stream, err := portaudio.OpenStream(params, src.capture)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening audio stream on %q: %w", dev.Name, err)
	}
	src.stream = stream

	log.Info().Str("device", dev.Name).
		Int("sample_rate", conf.SampleRate).
		Int("channels", conf.Channels).
		Int("chunk_size", conf.ChunkSize).
		Msg("microphone opened")
	return src, nil
}

func inputDevice(index int) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing audio devices: %w", err)
	}
	if index < 0 || index >= len(devices) {
		return nil, fmt.Errorf("no audio device with index %d", index)
	}
	dev := devices[index]
	if dev.MaxInputChannels < 1 {
		return nil, fmt.Errorf("audio device %q has no input channels", dev.Name)
	}
	return dev, nil
}

// Source owns one open microphone stream and the queue its callback
// feeds. Drain is the only consumer-side entry point.
type Source struct {
	stream *portaudio.Stream
	queue  *Queue
	log    zerolog.Logger
}

// capture runs on the portaudio callback thread. It must return quickly so
// it only copies the buffer into the queue.
func (s *Source) capture(in []int16) {
	samples := make([]int16, len(in))
	copy(samples, in)
	s.queue.Push(Chunk{Samples: samples, Timestamp: time.Now()})
}

func (s *Source) Start() error {
	return s.stream.Start()
}

// Drain returns every chunk captured since the previous call.
func (s *Source) Drain() []Chunk {
	return s.queue.Drain()
}

// Dropped returns the number of chunks lost to queue overflow.
func (s *Source) Dropped() uint64 {
	return s.queue.Dropped()
}

func (s *Source) Close() error {
	err := s.stream.Stop()
	if cerr := s.stream.Close(); err == nil {
		err = cerr
	}
	if dropped := s.queue.Dropped(); dropped > 0 {
		s.log.Warn().Uint64("chunks", dropped).Msg("audio chunks dropped during capture")
	}
	portaudio.Terminate()
	return err
}
