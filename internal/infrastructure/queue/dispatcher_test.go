package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/identitylab/account-service/internal/core/domain"
)

type collectingAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	done   chan struct{}
	want   int
}

func newCollectingAuditRepo(want int) *collectingAuditRepo {
	return &collectingAuditRepo{done: make(chan struct{}), want: want}
}

func (r *collectingAuditRepo) Insert(_ context.Context, event domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	if len(r.events) == r.want {
		close(r.done)
	}
	return nil
}

func (r *collectingAuditRepo) wait(t *testing.T) []domain.AuditEvent {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for events, got %d of %d", len(r.events), r.want)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditEvent, len(r.events))
	copy(out, r.events)
	return out
}

func TestDispatcher_DeliversAllEvents(t *testing.T) {
	repo := newCollectingAuditRepo(3)
	d := NewDispatcher(2, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Record(domain.AuditEvent{Actor: "alice", Action: domain.AuditLogin})
	d.Record(domain.AuditEvent{Actor: "bob", Action: domain.AuditLogin})
	d.Record(domain.AuditEvent{Actor: "alice", Action: domain.AuditLogout})

	events := repo.wait(t)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
}

func TestDispatcher_PerActorOrdering(t *testing.T) {
	const perActor = 50
	repo := newCollectingAuditRepo(perActor * 2)
	d := NewDispatcher(4, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < perActor; i++ {
		d.Record(domain.AuditEvent{Actor: "alice", Action: domain.AuditLogin, Timestamp: time.Unix(int64(i), 0)})
		d.Record(domain.AuditEvent{Actor: "bob", Action: domain.AuditLogin, Timestamp: time.Unix(int64(i), 0)})
	}

	events := repo.wait(t)

	last := map[string]int64{"alice": -1, "bob": -1}
	for _, ev := range events {
		ts := ev.Timestamp.Unix()
		if ts <= last[ev.Actor] {
			t.Fatalf("out-of-order event for %s: %d after %d", ev.Actor, ts, last[ev.Actor])
		}
		last[ev.Actor] = ts
	}
}

func TestDispatcher_ShardIsStablePerActor(t *testing.T) {
	d := NewDispatcher(8, newCollectingAuditRepo(0), zerolog.Nop())

	first := d.shardIndex("alice")
	for i := 0; i < 100; i++ {
		if got := d.shardIndex("alice"); got != first {
			t.Fatalf("shard index changed: %d != %d", got, first)
		}
	}
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	// Workers never started, so channels fill up and Record must not block.
	repo := newCollectingAuditRepo(0)
	d := NewDispatcher(1, repo, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Record(domain.AuditEvent{Actor: "alice", Action: domain.AuditLogin})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}
}
