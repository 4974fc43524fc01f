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

package loglimiter

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// New returns a LogLimiter emitting warnings through log, suppressing a
// message that repeats within the given interval.
func New(log zerolog.Logger, interval time.Duration) *LogLimiter {
	return &LogLimiter{
		log:      log,
		interval: interval,
		nowFunc:  time.Now,
	}
}

// LogLimiter drops a log message if the same message was already emitted
// within some time interval. The controller ticks many times a second so a
// persistent failure would otherwise flood the log.
type LogLimiter struct {
	log           zerolog.Logger
	interval      time.Duration
	nowFunc       func() time.Time
	previousEntry string
	previousTime  time.Time
}

func (limiter *LogLimiter) Printf(format string, v ...interface{}) {
	limiter.Print(fmt.Sprintf(format, v...))
}

func (limiter *LogLimiter) Print(s string) {
	now := limiter.nowFunc()
	if now.Sub(limiter.previousTime) < limiter.interval && s == limiter.previousEntry {
		return
	}

	limiter.log.Warn().Msg(s)
	limiter.previousTime = now
	limiter.previousEntry = s
}
