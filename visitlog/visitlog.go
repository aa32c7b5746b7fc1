// Package visitlog persists visit records off the request path. Decoy
// responses must never wait on the store, so visits go through a
// bounded queue and a single background writer.
package visitlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wovenlabs/gossamer/geo"
	"github.com/wovenlabs/gossamer/models"
	"github.com/wovenlabs/gossamer/storage"
)

// persistTimeout caps one store write plus its geo lookup.
const persistTimeout = 10 * time.Second

// Logger queues visits for background persistence. When the queue is
// full the visit is dropped with a warning rather than stalling the
// response.
type Logger struct {
	db    storage.Store
	geo   *geo.Resolver
	queue chan *models.Visit
	done  chan struct{}
}

// New creates a Logger with the given queue size and starts its writer
// goroutine. geoResolver may be nil to skip origin enrichment.
func New(db storage.Store, geoResolver *geo.Resolver, queueSize int) *Logger {
	if queueSize <= 0 {
		queueSize = 1024
	}
	l := &Logger{
		db:    db,
		geo:   geoResolver,
		queue: make(chan *models.Visit, queueSize),
		done:  make(chan struct{}),
	}
	go l.worker()
	return l
}

// Record queues a visit, assigning its ID and timestamp if unset.
// Safe to call from any request goroutine.
func (l *Logger) Record(v *models.Visit) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Time.IsZero() {
		v.Time = time.Now().UTC()
	}
	select {
	case l.queue <- v:
	default:
		slog.Warn("visit queue full, dropping visit", "bot", v.BotName, "path", v.Path)
	}
}

func (l *Logger) worker() {
	defer close(l.done)
	for v := range l.queue {
		l.persist(v)
	}
}

func (l *Logger) persist(v *models.Visit) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if l.geo != nil && v.Country == "" && v.Org == "" {
		info := l.geo.Lookup(ctx, v.ClientIP)
		v.Country = info.Country
		v.Org = info.Org
	}

	if err := l.db.InsertVisit(ctx, v); err != nil {
		slog.Warn("visit insert failed", "bot", v.BotName, "path", v.Path, "error", err)
	}
}

// Close drains queued visits and stops the writer. Record must not be
// called after Close, so shut the HTTP server down first.
func (l *Logger) Close() {
	close(l.queue)
	<-l.done
}
