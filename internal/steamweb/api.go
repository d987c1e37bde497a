package steamweb

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/leighmacdonald/steamid/v4/steamid"
)

// MaxSummaryBatch is the most ids the summaries endpoints accept in one call.
const MaxSummaryBatch = 100

var ErrVanityNotFound = errors.New("vanity url could not be resolved")

// FriendIDs fetches the confirmed friends of the credential owner. In key mode the owner must be
// supplied as self, token mode derives it from the token.
func (c *Client) FriendIDs(ctx context.Context, credential string, self steamid.SteamID) (steamid.Collection, error) {
	mode := Classify(credential)
	req := NewRequest(GetFriendsList).OnStatus(http.StatusUnauthorized, ErrPrivateFriendsList)
	if mode == ModeKey && self.Valid() {
		req.Param("steamid", self.String())
	}

	raw, errRaw := c.Execute(ctx, req, credential, slog.String("mode", mode.String()))
	if errRaw != nil {
		return nil, errRaw
	}

	return FriendIDs(raw, mode), nil
}

// PlayerSummaries fetches summaries in batches of MaxSummaryBatch ids. Batches are fetched one
// after another and a failed batch is skipped without affecting the others.
func (c *Client) PlayerSummaries(ctx context.Context, credential string, steamIDs steamid.Collection) ([]PlayerSummary, error) {
	var summaries []PlayerSummary
	for batchIdx, batch := range chunk(steamIDs, MaxSummaryBatch) {
		req := NewRequest(GetPlayerSummaries).
			Param("steamids", strings.Join(batch.ToStringSlice(), ",")).
			AllowFailure()

		raw, errRaw := c.Execute(ctx, req, credential,
			slog.Int("batch", batchIdx), slog.Int("batch_size", len(batch)))
		if errRaw != nil {
			return nil, errRaw
		}

		if raw == nil {
			continue
		}

		summaries = append(summaries, PlayerSummaries(raw)...)
	}

	return summaries, nil
}

// LinkDetails fetches link details, including rich presence, for all ids in a single request.
func (c *Client) LinkDetails(ctx context.Context, credential string, steamIDs steamid.Collection) ([]LinkAccount, error) {
	if len(steamIDs) == 0 {
		return nil, nil
	}

	req := NewRequest(GetPlayerLinkDetails)
	for idx, sid := range steamIDs {
		req.Param("steamids["+strconv.Itoa(idx)+"]", sid.String())
	}

	raw, errRaw := c.Execute(ctx, req, credential, slog.Int("count", len(steamIDs)))
	if errRaw != nil {
		return nil, errRaw
	}

	return LinkDetails(raw), nil
}

// ResolveVanityURL looks up the steam id belonging to a custom profile url name.
func (c *Client) ResolveVanityURL(ctx context.Context, credential string, vanity string) (steamid.SteamID, error) {
	raw, errRaw := c.Execute(ctx, NewRequest(ResolveVanityURL).Param("vanityurl", vanity), credential,
		slog.String("vanity", vanity))
	if errRaw != nil {
		return invalidSteamID, errRaw
	}

	sid, found := VanitySteamID(raw)
	if !found {
		return invalidSteamID, ErrVanityNotFound
	}

	return sid, nil
}

func chunk(steamIDs steamid.Collection, size int) []steamid.Collection {
	var batches []steamid.Collection
	for start := 0; start < len(steamIDs); start += size {
		end := min(start+size, len(steamIDs))
		batches = append(batches, steamIDs[start:end])
	}

	return batches
}
