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

import "sync"

// NewQueue returns a bounded chunk queue holding at most capacity chunks.
func NewQueue(capacity int) *Queue {
	return &Queue{capacity: capacity}
}

// Queue buffers captured chunks between the audio callback and the
// controller loop. Single producer, single consumer. When full, the oldest
// chunk is discarded so the capture callback never stalls.
type Queue struct {
	mu       sync.Mutex
	chunks   []Chunk
	capacity int
	dropped  uint64
}

// Push appends a chunk, evicting the oldest one if the queue is full.
func (q *Queue) Push(c Chunk) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.chunks) >= q.capacity {
		q.chunks = q.chunks[1:]
		q.dropped++
	}
	q.chunks = append(q.chunks, c)
}

// Drain removes and returns all queued chunks in capture order. It never
// blocks; an empty queue yields nil.
func (q *Queue) Drain() []Chunk {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.chunks) == 0 {
		return nil
	}
	out := q.chunks
	q.chunks = nil
	return out
}

// Dropped returns the number of chunks discarded due to overflow.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
