package presence

import (
	"context"
	"log/slog"
	"maps"

	"github.com/leighmacdonald/cs2-friends/internal/steamweb"
	"github.com/leighmacdonald/steamid/v4/steamid"
)

// Source provides the raw friend data the aggregator works from. *steamweb.Client satisfies it.
type Source interface {
	FriendIDs(ctx context.Context, credential string, self steamid.SteamID) (steamid.Collection, error)
	LinkDetails(ctx context.Context, credential string, steamIDs steamid.Collection) ([]steamweb.LinkAccount, error)
}

// AvatarFetcher loads player summaries for the given ids, used to fill in missing avatars.
type AvatarFetcher func(ctx context.Context, credential string, steamIDs steamid.Collection) ([]steamweb.PlayerSummary, error)

// Result is the output of a single aggregation pass.
type Result struct {
	// FriendIDs holds every confirmed friend, in game or not.
	FriendIDs steamid.Collection
	Friends   []Friend
	// Avatars is a new cache containing the input cache plus any avatars fetched during the pass.
	Avatars AvatarCache
}

// Aggregator builds the list of in game friends. It holds no mutable state, so a single instance
// can serve concurrent callers.
type Aggregator struct {
	source       Source
	fetchAvatars AvatarFetcher
	logger       *slog.Logger
}

func NewAggregator(source Source, fetchAvatars AvatarFetcher, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Aggregator{source: source, fetchAvatars: fetchAvatars, logger: logger.With(slog.String("module", "presence"))}
}

// Aggregate runs a full pass: friends list, link details, filtering to CS2 players, rich presence
// decoding and avatar backfill for friends in a supported mode. The avatars argument is not modified.
func (a *Aggregator) Aggregate(ctx context.Context, credential string, self steamid.SteamID, avatars AvatarCache) (Result, error) {
	friendIDs, errFriends := a.source.FriendIDs(ctx, credential, self)
	if errFriends != nil {
		return Result{}, errFriends
	}

	if len(friendIDs) == 0 {
		return Result{}, steamweb.ErrEmptyFriendsList
	}

	accounts, errAccounts := a.source.LinkDetails(ctx, credential, friendIDs)
	if errAccounts != nil {
		return Result{}, errAccounts
	}

	inGame := filterGame(accounts, AppID)
	a.logger.Debug("Fetched friend presence", slog.Int("friends", len(friendIDs)),
		slog.Int("accounts", len(accounts)), slog.Int("in_game", len(inGame)))

	type pending struct {
		account   steamweb.LinkAccount
		steamID   steamid.SteamID
		presence  RichPresence
		supported bool
	}

	var (
		entries   = make([]pending, 0, len(inGame))
		supported steamid.Collection
	)

	for _, account := range inGame {
		entry := pending{
			account:  account,
			steamID:  steamid.New(account.Public.SteamID),
			presence: DecodeRichPresence(account.Private.RichPresenceKV),
		}
		entry.supported = InSupportedMode(entry.presence.GameMode, entry.presence.GameState)

		if entry.supported && entry.steamID.Valid() {
			supported = append(supported, entry.steamID)
		}

		entries = append(entries, entry)
	}

	updatedAvatars, names, errAvatars := a.backfillAvatars(ctx, credential, avatars, supported)
	if errAvatars != nil {
		return Result{}, errAvatars
	}

	friends := make([]Friend, 0, len(entries))
	for _, entry := range entries {
		displayName := entry.account.Public.PersonaName
		if displayName == "" {
			displayName = names[entry.steamID]
		}

		serverID := entry.presence.GameServerSteamID
		if serverID == "" {
			serverID = entry.account.Private.GameServerSteamID
		}

		friends = append(friends, Friend{
			SteamID:         entry.account.Public.SteamID,
			DisplayName:     displayName,
			AvatarURL:       updatedAvatars[entry.steamID],
			Status:          entry.presence.Status,
			GameMode:        entry.presence.GameMode,
			GameState:       entry.presence.GameState,
			GameMap:         entry.presence.GameMap,
			GameScore:       entry.presence.GameScore,
			GameServerID:    serverID,
			InSupportedMode: entry.supported,
			JoinAvailable:   JoinAvailable(entry.supported, entry.presence.Connect),
			ConnectString:   entry.presence.Connect,
		})
	}

	return Result{FriendIDs: friendIDs, Friends: friends, Avatars: updatedAvatars}, nil
}

// backfillAvatars fetches summaries only for the supported ids missing from the cache.
func (a *Aggregator) backfillAvatars(ctx context.Context, credential string, avatars AvatarCache,
	steamIDs steamid.Collection,
) (AvatarCache, map[steamid.SteamID]string, error) {
	names := map[steamid.SteamID]string{}

	missing := avatars.Missing(steamIDs)
	if len(missing) == 0 || a.fetchAvatars == nil {
		updated := maps.Clone(avatars)
		if updated == nil {
			updated = AvatarCache{}
		}

		return updated, names, nil
	}

	summaries, errSummaries := a.fetchAvatars(ctx, credential, missing)
	if errSummaries != nil {
		return nil, nil, errSummaries
	}

	a.logger.Debug("Fetched missing avatars", slog.Int("requested", len(missing)),
		slog.Int("received", len(summaries)))

	for _, summary := range summaries {
		names[steamid.New(summary.SteamID)] = summary.PersonaName
	}

	return avatars.Merge(summaries), names, nil
}

func filterGame(accounts []steamweb.LinkAccount, appID string) []steamweb.LinkAccount {
	var matched []steamweb.LinkAccount
	for _, account := range accounts {
		if account.Private.GameID == appID {
			matched = append(matched, account)
		}
	}

	return matched
}
