// Package poller runs aggregation passes on a fixed interval and publishes the results.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/leighmacdonald/cs2-friends/internal/cache"
	"github.com/leighmacdonald/cs2-friends/internal/presence"
	"github.com/leighmacdonald/cs2-friends/internal/state"
	"github.com/leighmacdonald/cs2-friends/internal/steamweb"
	"github.com/leighmacdonald/cs2-friends/internal/store"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/rs/xid"
)

const minInterval = 5 * time.Second

// Aggregator performs a single aggregation pass. *presence.Aggregator satisfies it.
type Aggregator interface {
	Aggregate(ctx context.Context, credential string, self steamid.SteamID, avatars presence.AvatarCache) (presence.Result, error)
}

// Opts configures a Poller. Settings may be nil.
type Opts struct {
	Credential string
	Self       steamid.SteamID
	Interval   time.Duration
	Aggregator Aggregator
	Avatars    *cache.Avatars
	Sink       state.Sink
	Settings   store.SettingsStore
	Logger     *slog.Logger
}

func New(opts Opts) *Poller {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.Sink == nil {
		opts.Sink = state.NewTracker(opts.Logger)
	}
	opts.Logger = opts.Logger.With(slog.String("module", "poller"))

	if opts.Avatars == nil {
		opts.Avatars = cache.NewAvatars(0)
	}

	return &Poller{opts: opts}
}

// Poller keeps the avatar cache alive between passes and feeds each result to the sink.
type Poller struct {
	opts Opts
}

// Poll runs a single pass.
func (p *Poller) Poll(ctx context.Context) (presence.Result, error) {
	logger := p.opts.Logger.With(slog.String("pass", xid.New().String()))
	started := time.Now()

	result, err := p.opts.Aggregator.Aggregate(ctx, p.opts.Credential, p.opts.Self, p.opts.Avatars.Snapshot())
	if err != nil {
		logger.Error("Failed to update friends", slog.String("error", err.Error()))
		p.opts.Sink.Set(state.KeyError, err.Error())

		return result, err
	}

	changed := p.opts.Avatars.Update(result.Avatars)

	p.opts.Sink.Set(state.KeyFriends, result.Friends)
	p.opts.Sink.Set(state.KeyError, "")
	p.opts.Sink.Set(state.KeyUpdated, time.Now())

	logger.Info("Updated friends", slog.Int("in_game", len(result.Friends)),
		slog.Int("friends", len(result.FriendIDs)), slog.Int("new_avatars", changed),
		slog.Duration("took", time.Since(started)))

	if p.opts.Settings != nil {
		settings := store.Settings{Credential: p.opts.Credential, FriendIDs: result.FriendIDs.ToStringSlice()}
		if errSave := store.SaveSettings(ctx, p.opts.Settings, settings); errSave != nil {
			logger.Error("Failed to save settings", slog.String("error", errSave.Error()))
		}
	}

	return result, nil
}

// Start polls immediately and then on every interval until the context is cancelled. A private
// or empty friends list cannot be fixed by polling again so it ends the loop with that error.
func (p *Poller) Start(ctx context.Context) error {
	interval := max(p.opts.Interval, minInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.Poll(ctx); err != nil && terminal(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func terminal(err error) bool {
	return errors.Is(err, steamweb.ErrEmptyFriendsList) || errors.Is(err, steamweb.ErrPrivateFriendsList)
}
