// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package datacache keeps the process-wide copy of the content collections.

# Atomicity

A refresh fetches subjects, lectures and users concurrently. Only when all
three succeed is a new [Snapshot] published, in one pointer swap. Readers
never see a mix of old and new collections, and a failed refresh leaves the
previous snapshot in place with the error recorded next to it.

# Ordering

Refreshes are numbered when they start. A refresh publishes only if no
refresh that started after it has published already, so a slow early
refresh cannot overwrite newer data.
*/
package datacache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/planx/internal/content/catalog"
	"github.com/taibuivan/planx/internal/users/account"
	"github.com/taibuivan/planx/pkg/slice"
)

// Source is the content backend as seen by the cache.
type Source interface {
	ListSubjects(context context.Context) ([]catalog.Subject, error)
	ListLectures(context context.Context) ([]catalog.Lecture, error)
	ListUsers(context context.Context) ([]account.User, error)
}

// Snapshot is one consistent, immutable view of the collections. Subjects
// are sorted by ordering key; users carry no credential secret.
type Snapshot struct {
	Subjects  []catalog.Subject
	Lectures  []catalog.Lecture
	Users     []account.User
	FetchedAt time.Time
}

// Cache is the shared data cache.
type Cache struct {
	source Source
	logger *slog.Logger

	snapshot atomic.Pointer[Snapshot]

	// generation numbers refresh starts; published is the generation of the
	// current snapshot.
	generation atomic.Uint64
	inFlight   atomic.Int32

	mutex     sync.Mutex
	published uint64
	lastErr   error
}

// New builds the cache and performs the first refresh. A failed first
// refresh is not fatal: the cache starts empty and reports the error.
func New(context context.Context, source Source, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	cache := &Cache{
		source: source,
		logger: logger.With(slog.String("component", "datacache")),
	}
	cache.snapshot.Store(&Snapshot{
		Subjects: []catalog.Subject{},
		Lectures: []catalog.Lecture{},
		Users:    []account.User{},
	})

	if err := cache.Refresh(context); err != nil {
		cache.logger.Warn("datacache_initial_refresh_failed", slog.Any("error", err))
	}
	return cache
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (cache *Cache) Snapshot() *Snapshot {
	return cache.snapshot.Load()
}

// Err returns the failure of the latest completed refresh, or nil.
func (cache *Cache) Err() error {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()
	return cache.lastErr
}

// Loading reports whether a refresh is in flight.
func (cache *Cache) Loading() bool {
	return cache.inFlight.Load() > 0
}

/*
Refresh reloads the three collections.

Description: The fetches run concurrently. On success the new snapshot
replaces the old one and the error is cleared. On failure the old snapshot
is kept and the error is recorded and returned.
*/
func (cache *Cache) Refresh(context context.Context) error {
	generation := cache.generation.Add(1)
	cache.inFlight.Add(1)
	defer cache.inFlight.Add(-1)

	var (
		subjects []catalog.Subject
		lectures []catalog.Lecture
		users    []account.User
	)

	group, groupCtx := errgroup.WithContext(context)
	group.Go(func() error {
		var err error
		subjects, err = cache.source.ListSubjects(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		lectures, err = cache.source.ListLectures(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		users, err = cache.source.ListUsers(groupCtx)
		return err
	})

	err := group.Wait()

	cache.mutex.Lock()
	defer cache.mutex.Unlock()

	if generation < cache.published {
		// A newer refresh already published; this result is stale either way.
		return err
	}

	if err != nil {
		cache.lastErr = err
		cache.logger.WarnContext(context, "datacache_refresh_failed", slog.Any("error", err))
		return err
	}

	catalog.SortSubjects(subjects)
	cache.snapshot.Store(&Snapshot{
		Subjects:  subjects,
		Lectures:  lectures,
		Users:     slice.Map(users, account.User.Sanitized),
		FetchedAt: time.Now(),
	})
	cache.published = generation
	cache.lastErr = nil
	return nil
}
