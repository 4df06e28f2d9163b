package store

import (
	"context"
	"errors"
	"testing"
)

func TestSubscribeThenUnsubscribeLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	subs := NewSubscriptionStore(newFakeBackend(), testLogger())

	guild := Ref{ID: "g1", Name: "traders"}
	channel := Ref{ID: "c1", Name: "halts"}

	if err := subs.Subscribe(ctx, guild, channel); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !subs.IsSubscribed(channel.ID) {
		t.Fatal("channel should be subscribed")
	}
	if err := subs.Unsubscribe(ctx, guild, channel); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if subs.IsSubscribed(channel.ID) {
		t.Fatal("channel should no longer be subscribed")
	}
	if subs.Len() != 0 {
		t.Fatalf("expected empty store, got %d records", subs.Len())
	}
}

func TestSubscribeDuplicateChannel(t *testing.T) {
	ctx := context.Background()
	subs := NewSubscriptionStore(newFakeBackend(), testLogger())

	guild := Ref{ID: "g1", Name: "traders"}
	channel := Ref{ID: "c1", Name: "halts"}

	if err := subs.Subscribe(ctx, guild, channel); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := subs.Subscribe(ctx, guild, channel); !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("expected ErrAlreadySubscribed, got %v", err)
	}
	if subs.Len() != 1 {
		t.Fatalf("duplicate subscribe must not add a record, got %d", subs.Len())
	}
}

func TestUnsubscribeUnknownChannel(t *testing.T) {
	subs := NewSubscriptionStore(newFakeBackend(), testLogger())

	err := subs.Unsubscribe(context.Background(), Ref{ID: "g1"}, Ref{ID: "c1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveAllForGuild(t *testing.T) {
	ctx := context.Background()
	subs := NewSubscriptionStore(newFakeBackend(), testLogger())

	if err := subs.Subscribe(ctx, Ref{ID: "g1"}, Ref{ID: "c1"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := subs.Subscribe(ctx, Ref{ID: "g2"}, Ref{ID: "c2"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := subs.Subscribe(ctx, Ref{ID: "g1"}, Ref{ID: "c3"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := subs.RemoveAllForGuild(ctx, "g1"); err != nil {
		t.Fatalf("removeAllForGuild: %v", err)
	}

	if len(subs.ForGuild("g1")) != 0 {
		t.Fatal("expected no subscriptions left for g1")
	}
	remaining := subs.All()
	if len(remaining) != 1 || remaining[0].Channel.ID != "c2" {
		t.Fatalf("expected only c2 to survive, got %v", remaining)
	}
}
