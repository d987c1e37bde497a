package poller_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/leighmacdonald/cs2-friends/internal/cache"
	"github.com/leighmacdonald/cs2-friends/internal/poller"
	"github.com/leighmacdonald/cs2-friends/internal/presence"
	"github.com/leighmacdonald/cs2-friends/internal/state"
	"github.com/leighmacdonald/cs2-friends/internal/steamweb"
	"github.com/leighmacdonald/cs2-friends/internal/store"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/stretchr/testify/require"
)

var friendID = steamid.New("76561197960287930")

type fakeAggregator struct {
	err      error
	received []presence.AvatarCache
}

func (f *fakeAggregator) Aggregate(_ context.Context, _ string, _ steamid.SteamID, avatars presence.AvatarCache) (presence.Result, error) {
	f.received = append(f.received, avatars)
	if f.err != nil {
		return presence.Result{}, f.err
	}

	return presence.Result{
		FriendIDs: steamid.Collection{friendID},
		Friends:   []presence.Friend{{SteamID: friendID.String(), InSupportedMode: true}},
		Avatars:   presence.AvatarCache{friendID: "avatar.jpg"},
	}, nil
}

type memorySettings struct {
	document json.RawMessage
}

func (m *memorySettings) Load(_ context.Context) (json.RawMessage, error) {
	if m.document == nil {
		return nil, store.ErrSettingsNotFound
	}

	return m.document, nil
}

func (m *memorySettings) Save(_ context.Context, document json.RawMessage) error {
	m.document = document

	return nil
}

func TestPoll(t *testing.T) {
	aggregator := &fakeAggregator{}
	tracker := state.NewTracker(nil)
	settings := &memorySettings{}
	avatars := cache.NewAvatars(time.Hour)

	pollr := poller.New(poller.Opts{
		Credential: "a.b.c",
		Aggregator: aggregator,
		Avatars:    avatars,
		Sink:       tracker,
		Settings:   settings,
	})

	_, err := pollr.Poll(t.Context())
	require.NoError(t, err)
	_, errSecond := pollr.Poll(t.Context())
	require.NoError(t, errSecond)

	// The avatar fetched in the first pass is passed into the second.
	require.Equal(t, []presence.AvatarCache{{}, {friendID: "avatar.jpg"}}, aggregator.received)

	friends, found := tracker.Get(state.KeyFriends)
	require.True(t, found)
	require.Len(t, friends, 1)

	saved, errLoad := store.LoadSettings(t.Context(), settings)
	require.NoError(t, errLoad)
	require.Equal(t, store.Settings{Credential: "a.b.c", FriendIDs: []string{friendID.String()}}, saved)
}

func TestStartStopsOnTerminalError(t *testing.T) {
	tracker := state.NewTracker(nil)
	pollr := poller.New(poller.Opts{
		Aggregator: &fakeAggregator{err: steamweb.ErrPrivateFriendsList},
		Sink:       tracker,
	})

	err := pollr.Start(t.Context())
	require.ErrorIs(t, err, steamweb.ErrPrivateFriendsList)

	message, _ := tracker.Get(state.KeyError)
	require.Equal(t, steamweb.ErrPrivateFriendsList.Error(), message)
}

func TestStartContinuesOnOtherErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	aggregator := &fakeAggregator{err: errors.Join(&steamweb.APIError{Status: 500})}
	pollr := poller.New(poller.Opts{Aggregator: aggregator, Sink: state.NewTracker(nil)})

	require.NoError(t, pollr.Start(ctx))
	require.Len(t, aggregator.received, 1)
}
