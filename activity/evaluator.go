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

package activity

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Shepherd1226/Activity-Surveil/loglimiter"
)

const minLogInterval = time.Minute

// NewEvaluator returns an Evaluator for the configured trigger method and
// thresholds.
func NewEvaluator(conf *Config, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		conf: conf,
		log:  loglimiter.New(log, minLogInterval),
	}
}

// Evaluator decides whether a sample counts as activity. The decision is a
// pure function of the sample and the configuration; the only side effect
// is a rate-limited warning when a sensor the trigger method needs produced
// no score.
type Evaluator struct {
	conf *Config
	log  *loglimiter.LogLimiter
}

// Evaluate reports whether the sample meets the configured thresholds.
// A score exactly at its threshold counts as activity. A missing score for
// a required sensor is treated as no activity from that sensor.
func (e *Evaluator) Evaluate(sample Sample) bool {
	motion := false
	if e.conf.Method.UsesMotion() {
		if sample.Motion == nil {
			e.log.Print("no motion score for motion-triggered evaluation")
		} else {
			motion = *sample.Motion >= e.conf.MotionThreshold
		}
	}

	sound := false
	if e.conf.Method.UsesSound() {
		if sample.Sound == nil {
			e.log.Print("no sound score for sound-triggered evaluation")
		} else {
			sound = *sample.Sound >= e.conf.SoundThreshold
		}
	}

	switch e.conf.Method {
	case TriggerMotion:
		return motion
	case TriggerSound:
		return sound
	default:
		return motion || sound
	}
}
