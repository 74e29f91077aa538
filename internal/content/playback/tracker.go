// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package playback records watch progress while a lecture plays.

# Debounce

Players report their position often. A [Tracker] keeps only the latest
position and writes it once the reports have been quiet for the debounce
delay (trailing debounce). Every report restarts the delay. Closing a
tracker cancels the pending write without performing it.

# Ownership

One tracker exists per (browser session, lecture) while a write is pending.
The [Registry] owns them, drops a tracker once its write is done, and ends
all trackers of a browser session on logout or idle eviction.

The sink is taken from the latest report, never pinned at creation. A
session store that was evicted and rebuilt under the same id is written
through its live instance.
*/
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/taibuivan/planx/internal/users/account"
)

// Sink receives the debounced position. The session store implements it.
type Sink interface {
	RecordProgress(context context.Context, lectureID string, position float64) error
}

// ErrClosed is returned when reporting to a closed tracker.
var ErrClosed = errors.New("playback: tracker closed")

// Tracker debounces the position reports of one lecture.
type Tracker struct {
	lectureID    string
	clock        clock.Clock
	delay        time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger

	// onIdle runs after a write, outside the tracker lock.
	onIdle func(*Tracker)

	mutex   sync.Mutex
	sink    Sink
	timer   *clock.Timer
	pending float64
	// generation invalidates timers that fire after being replaced or stopped.
	generation uint64
	closed     bool
}

// Observe records position as the latest report, to be written through
// sink, and restarts the delay.
func (tracker *Tracker) Observe(sink Sink, position float64) error {
	if err := account.ValidatePosition(position); err != nil {
		return err
	}

	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	if tracker.closed {
		return ErrClosed
	}

	tracker.sink = sink
	tracker.pending = position
	if tracker.timer != nil {
		tracker.timer.Stop()
	}
	tracker.generation++
	generation := tracker.generation
	tracker.timer = tracker.clock.AfterFunc(tracker.delay, func() { tracker.fire(generation) })
	return nil
}

// Pending reports whether a write is scheduled.
func (tracker *Tracker) Pending() bool {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()
	return tracker.timer != nil
}

// Close cancels the pending write. It is safe to call more than once.
func (tracker *Tracker) Close() {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	tracker.closed = true
	tracker.generation++
	if tracker.timer != nil {
		tracker.timer.Stop()
		tracker.timer = nil
	}
}

func (tracker *Tracker) fire(generation uint64) {
	tracker.mutex.Lock()
	if tracker.closed || generation != tracker.generation {
		tracker.mutex.Unlock()
		return
	}
	position, sink := tracker.pending, tracker.sink
	tracker.timer = nil
	tracker.mutex.Unlock()

	tracker.write(sink, position)
	if tracker.onIdle != nil {
		tracker.onIdle(tracker)
	}
}

// retireIfIdle closes the tracker unless a newer report is pending.
func (tracker *Tracker) retireIfIdle() bool {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	if tracker.timer != nil {
		return false
	}
	tracker.closed = true
	tracker.generation++
	return true
}

func (tracker *Tracker) write(sink Sink, position float64) {
	ctx, cancel := context.WithTimeout(context.Background(), tracker.writeTimeout)
	defer cancel()

	if err := sink.RecordProgress(ctx, tracker.lectureID, position); err != nil {
		tracker.logger.Warn("progress_write_failed",
			slog.String("lecture_id", tracker.lectureID),
			slog.Float64("position", position),
			slog.Any("error", err),
		)
		return
	}
	tracker.logger.Debug("progress_written",
		slog.String("lecture_id", tracker.lectureID),
		slog.Float64("position", position),
	)
}
