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
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(interval time.Duration) (*LogLimiter, *bytes.Buffer) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	return New(log, interval), &buf
}

func messages(buf *bytes.Buffer) []string {
	var out []string
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(line, &entry); err == nil {
			out = append(out, entry.Message)
		}
	}
	return out
}

func TestPrint(t *testing.T) {
	limiter, buf := newTestLimiter(time.Minute)

	limiter.Print("hello")
	limiter.Print("world")

	assert.Equal(t, []string{"hello", "world"}, messages(buf))
}

func TestPrintf(t *testing.T) {
	limiter, buf := newTestLimiter(time.Minute)

	limiter.Printf("hello: %d", 42)
	limiter.Printf("world: %q", "hi")

	assert.Equal(t, []string{"hello: 42", `world: "hi"`}, messages(buf))
}

func TestLimitPrint(t *testing.T) {
	limiter, buf := newTestLimiter(2 * time.Second)

	now := time.Now()
	limiter.nowFunc = func() time.Time { return now }

	limiter.Print("hello")
	assert.Equal(t, []string{"hello"}, messages(buf))

	// Advance time but still within the window.
	now = now.Add(time.Second)
	limiter.Print("hello")
	assert.Equal(t, []string{"hello"}, messages(buf))

	// Now go past the window; see that the second line is logged.
	now = now.Add(time.Second)
	limiter.Print("hello")
	assert.Equal(t, []string{"hello", "hello"}, messages(buf))
}

func TestDifferentMessagesNotLimited(t *testing.T) {
	limiter, buf := newTestLimiter(time.Minute)

	now := time.Now()
	limiter.nowFunc = func() time.Time { return now }

	limiter.Print("hello")
	limiter.Print("world")
	limiter.Print("hello")

	assert.Equal(t, []string{"hello", "world", "hello"}, messages(buf))
}
