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
	"os/exec"

	"github.com/rs/zerolog"
)

// findMuxer locates ffmpeg on the PATH. Returns nil when unavailable, in
// which case video and audio are published as separate files.
func findMuxer(log zerolog.Logger) *muxer {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		log.Warn().Msg("ffmpeg not found, video and audio will be saved separately")
		return nil
	}
	return &muxer{path: path}
}

type muxer struct {
	path string
}

// combine muxes a video container and a WAV file into out. The video
// stream is copied; audio is encoded to AAC.
func (m *muxer) combine(videoPath, audioPath, out string) error {
	cmd := exec.Command(m.path,
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-strict", "experimental",
		out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("muxing recording: %w: %s", err, output)
	}
	return nil
}
