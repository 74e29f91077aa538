// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

const (
	defaultDelay        = 5 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Config tunes the trackers of a [Registry].
type Config struct {
	// Delay is the quiet period before a position is written. Defaults to 5s.
	Delay time.Duration
	// WriteTimeout bounds each write. Defaults to 10s.
	WriteTimeout time.Duration
	// Clock drives the debounce timers. Defaults to the wall clock.
	Clock  clock.Clock
	Logger *slog.Logger
}

type trackerKey struct {
	sessionID string
	lectureID string
}

// Registry owns the live trackers.
type Registry struct {
	config Config
	logger *slog.Logger

	mutex    sync.Mutex
	trackers map[trackerKey]*Tracker
}

// NewRegistry creates an empty [Registry].
func NewRegistry(config Config) *Registry {
	if config.Delay <= 0 {
		config.Delay = defaultDelay
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaultWriteTimeout
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Registry{
		config:   config,
		logger:   config.Logger.With(slog.String("component", "playback")),
		trackers: make(map[trackerKey]*Tracker),
	}
}

// Observe reports a position for a lecture played in a browser session. The
// pending write goes through sink, the sink of the latest report.
func (registry *Registry) Observe(sessionID, lectureID string, sink Sink, position float64) error {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	// Holding the registry lock keeps retire from closing the tracker
	// between lookup and report.
	return registry.tracker(sessionID, lectureID).Observe(sink, position)
}

// tracker returns the open tracker of a key, creating it. The caller holds
// the registry lock.
func (registry *Registry) tracker(sessionID, lectureID string) *Tracker {
	key := trackerKey{sessionID: sessionID, lectureID: lectureID}
	if tracker, ok := registry.trackers[key]; ok {
		return tracker
	}

	tracker := &Tracker{
		lectureID:    lectureID,
		clock:        registry.config.Clock,
		delay:        registry.config.Delay,
		writeTimeout: registry.config.WriteTimeout,
		logger:       registry.logger.With(slog.String("session_id", sessionID)),
		onIdle:       func(t *Tracker) { registry.retire(key, t) },
	}
	registry.trackers[key] = tracker
	return tracker
}

// retire forgets a tracker whose write is done, unless a report arrived
// meanwhile.
func (registry *Registry) retire(key trackerKey, tracker *Tracker) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	if registry.trackers[key] != tracker {
		return
	}
	if tracker.retireIfIdle() {
		delete(registry.trackers, key)
	}
}

// End closes the tracker of a lecture, dropping its pending write.
func (registry *Registry) End(sessionID, lectureID string) {
	key := trackerKey{sessionID: sessionID, lectureID: lectureID}

	registry.mutex.Lock()
	tracker, ok := registry.trackers[key]
	delete(registry.trackers, key)
	registry.mutex.Unlock()

	if ok {
		tracker.Close()
	}
}

// EndSession closes every tracker of a browser session. It runs on logout
// and when the session manager evicts an idle session.
func (registry *Registry) EndSession(sessionID string) {
	var ended []*Tracker

	registry.mutex.Lock()
	for key, tracker := range registry.trackers {
		if key.sessionID == sessionID {
			ended = append(ended, tracker)
			delete(registry.trackers, key)
		}
	}
	registry.mutex.Unlock()

	for _, tracker := range ended {
		tracker.Close()
	}
}

// Len returns the number of open trackers, that is trackers with a write
// pending or in flight.
func (registry *Registry) Len() int {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	return len(registry.trackers)
}
