package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/wfunc/catanclient/cache"
	"github.com/wfunc/catanclient/logger"
	"github.com/wfunc/catanclient/network"
)

func init() {
	logger.Init()
}

func recordInvalidations(store *cache.Store) *[]cache.Tag {
	var tags []cache.Tag
	store.Subscribe(func(tag cache.Tag) {
		tags = append(tags, tag)
	})
	return &tags
}

func TestGameCreatedInvalidatesListUnconditionally(t *testing.T) {
	store := cache.NewStore()
	tags := recordInvalidations(store)

	d := NewDispatcher()
	BindCache(d, store)

	d.Dispatch(network.Frame{Event: network.EventGameCreated})

	assert.Equal(t, []cache.Tag{cache.TagGames}, *tags)
}

func TestGameUpdatedWithoutRoomInvalidatesNothing(t *testing.T) {
	store := cache.NewStore()
	tags := recordInvalidations(store)

	d := NewDispatcher()
	BindCache(d, store)

	d.Dispatch(network.Frame{Event: network.EventGameUpdated})

	assert.Empty(t, *tags, "an update without a room identifier must not invalidate anything")
}

func TestGameUpdatedInvalidatesOnlyItsOwnTag(t *testing.T) {
	store := cache.NewStore()

	updated := uuid.New()
	other := uuid.New()
	store.Complete(cache.TagGame(updated), store.Begin(cache.TagGame(updated)), "updated-game")
	store.Complete(cache.TagGame(other), store.Begin(cache.TagGame(other)), "other-game")

	tags := recordInvalidations(store)

	d := NewDispatcher()
	BindCache(d, store)

	d.Dispatch(network.Frame{Event: network.EventGameUpdated, Room: updated.String()})

	assert.Equal(t, []cache.Tag{cache.TagGame(updated)}, *tags)

	_, ok := store.Get(cache.TagGame(updated))
	assert.False(t, ok, "the updated game's entry is stale")
	cached, ok := store.Get(cache.TagGame(other))
	assert.True(t, ok, "other cached games stay untouched")
	assert.Equal(t, "other-game", cached)
}

func TestGameUpdatedWithMalformedRoomIgnored(t *testing.T) {
	store := cache.NewStore()
	tags := recordInvalidations(store)

	d := NewDispatcher()
	BindCache(d, store)

	d.Dispatch(network.Frame{Event: network.EventGameUpdated, Room: "not-a-uuid"})

	assert.Empty(t, *tags)
}

func TestUnknownEventDropped(t *testing.T) {
	d := NewDispatcher()
	// No handlers registered; dispatch must not panic.
	d.Dispatch(network.Frame{Event: "game:unknown"})
}
