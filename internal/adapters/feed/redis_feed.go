// Package feed implements the live task feed on Redis pub/sub. Writers
// publish an owner-scoped change notice; each subscriber re-reads the
// owner's full task list and hands the snapshot to its handler.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
)

// TaskLister reads an owner's tasks in feed order.
type TaskLister interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entities.Task, error)
}

type changeNotice struct {
	OwnerID uuid.UUID `json:"owner_id"`
	At      time.Time `json:"at"`
}

// RedisFeed is both the change publisher and the live query.
type RedisFeed struct {
	rc             *redis.Client
	store          TaskLister
	prefix         string
	reconnectDelay time.Duration
	logger         *logger.Logger

	active atomic.Int64
	pushes atomic.Int64
}

// NewRedisFeed creates a feed publishing on prefix+ownerID channels.
func NewRedisFeed(rc *redis.Client, store TaskLister, prefix string, reconnectDelay time.Duration, log *logger.Logger) *RedisFeed {
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	return &RedisFeed{
		rc:             rc,
		store:          store,
		prefix:         prefix,
		reconnectDelay: reconnectDelay,
		logger:         log.WithComponent("feed"),
	}
}

func (f *RedisFeed) channel(ownerID uuid.UUID) string {
	return f.prefix + ownerID.String()
}

// PublishChange tells every subscriber of ownerID to re-read its snapshot.
func (f *RedisFeed) PublishChange(ctx context.Context, ownerID uuid.UUID) error {
	payload, err := json.Marshal(changeNotice{OwnerID: ownerID, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal change notice: %w", err)
	}
	if err := f.rc.Publish(ctx, f.channel(ownerID), payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// Subscribe delivers the owner's current snapshot before returning, then a
// fresh snapshot after every published change. Handler calls are serialized.
func (f *RedisFeed) Subscribe(ctx context.Context, ownerID uuid.UUID, onSnapshot func([]entities.Task)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	sub, err := f.open(ctx, ownerID)
	if err != nil {
		cancel()
		return nil, err
	}

	if err := f.push(ctx, ownerID, onSnapshot); err != nil {
		_ = sub.Close()
		cancel()
		return nil, err
	}

	f.active.Add(1)
	go f.listen(ctx, ownerID, sub, onSnapshot)

	var once sync.Once
	return func() { once.Do(cancel) }, nil
}

// open subscribes and waits for the server confirmation so no change
// published after the initial read can be missed.
func (f *RedisFeed) open(ctx context.Context, ownerID uuid.UUID) (*redis.PubSub, error) {
	sub := f.rc.Subscribe(ctx, f.channel(ownerID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", f.channel(ownerID), err)
	}
	return sub, nil
}

func (f *RedisFeed) listen(ctx context.Context, ownerID uuid.UUID, sub *redis.PubSub, onSnapshot func([]entities.Task)) {
	defer f.active.Add(-1)
	for {
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case _, ok := <-ch:
				if !ok {
					break recv
				}
				drain(ch)
				if err := f.push(ctx, ownerID, onSnapshot); err != nil && ctx.Err() == nil {
					f.logger.Errorw("Snapshot refresh failed", "owner_id", ownerID, "error", err)
				}
			}
		}

		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		f.logger.Warnw("Feed channel closed, reconnecting", "owner_id", ownerID)
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.reconnectDelay):
			}
			var err error
			if sub, err = f.open(ctx, ownerID); err == nil {
				break
			}
			f.logger.Warnw("Feed reconnect failed", "owner_id", ownerID, "error", err)
		}
		// Changes may have been missed while disconnected.
		if err := f.push(ctx, ownerID, onSnapshot); err != nil && ctx.Err() == nil {
			f.logger.Errorw("Snapshot refresh failed", "owner_id", ownerID, "error", err)
		}
	}
}

// drain drops notices already queued; one re-read covers all of them.
func drain(ch <-chan *redis.Message) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (f *RedisFeed) push(ctx context.Context, ownerID uuid.UUID, onSnapshot func([]entities.Task)) error {
	tasks, err := f.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list tasks for %s: %w", ownerID, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	f.pushes.Add(1)
	onSnapshot(tasks)
	return nil
}

// ActiveSubscriptions reports the number of open live queries.
func (f *RedisFeed) ActiveSubscriptions() int64 {
	return f.active.Load()
}

// Pushes reports how many snapshots have been delivered.
func (f *RedisFeed) Pushes() int64 {
	return f.pushes.Load()
}
