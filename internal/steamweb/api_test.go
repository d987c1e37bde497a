package steamweb_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/leighmacdonald/cs2-friends/internal/steamweb"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/stretchr/testify/require"
)

func makeSteamIDs(count int) steamid.Collection {
	ids := make(steamid.Collection, count)
	for idx := range count {
		ids[idx] = steamid.New(strconv.FormatInt(76561197960265729+int64(idx), 10))
	}

	return ids
}

func TestPlayerSummariesTruncatedBatch(t *testing.T) {
	var calls atomic.Int32
	server, recorded := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			writeTruncated(w, r)

			return
		}

		ids := strings.Split(r.URL.Query().Get("steamids"), ",")
		players := make([]steamweb.PlayerSummary, 0, len(ids))
		for _, sid := range ids {
			players = append(players, steamweb.PlayerSummary{SteamID: sid})
		}

		body, _ := json.Marshal(map[string]any{"response": map[string]any{"players": players}})
		_, _ = w.Write(body)
	})

	summaries, err := newTestClient(server, nil).PlayerSummaries(context.Background(), testKey, makeSteamIDs(250))
	require.NoError(t, err)
	require.Equal(t, 3, recorded.count())
	require.Len(t, summaries, 150)
}

func TestPlayerSummariesChunking(t *testing.T) {
	var calls atomic.Int32
	server, recorded := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("steamids"), ",")
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		players := make([]steamweb.PlayerSummary, 0, len(ids))
		for _, sid := range ids {
			players = append(players, steamweb.PlayerSummary{SteamID: sid, AvatarFull: "full-" + sid})
		}

		body, _ := json.Marshal(map[string]any{"response": map[string]any{"players": players}})
		_, _ = w.Write(body)
	})

	ids := makeSteamIDs(250)
	summaries, err := newTestClient(server, nil).PlayerSummaries(context.Background(), testKey, ids)
	require.NoError(t, err)
	require.Equal(t, 3, recorded.count())

	var batchSizes []int
	for _, query := range recorded.queries {
		values, errParse := url.ParseQuery(query)
		require.NoError(t, errParse)
		batchSizes = append(batchSizes, len(strings.Split(values.Get("steamids"), ",")))
	}
	require.Equal(t, []int{100, 100, 50}, batchSizes)
	require.Len(t, summaries, 150)
	require.Equal(t, ids[0].String(), summaries[0].SteamID)
	require.Equal(t, ids[99].String(), summaries[99].SteamID)
	require.Equal(t, ids[200].String(), summaries[100].SteamID)
	require.Equal(t, ids[249].String(), summaries[149].SteamID)
}

func TestFriendIDsPrivate(t *testing.T) {
	server, recorded := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := newTestClient(server, nil).FriendIDs(context.Background(), testKey, steamid.New("76561197960287930"))
	require.ErrorIs(t, err, steamweb.ErrPrivateFriendsList)
	require.Equal(t, "key="+testKey+"&relationship=friend&steamid=76561197960287930", recorded.queries[0])
}

func TestLinkDetailsParams(t *testing.T) {
	server, recorded := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"accounts":[]}}`))
	})

	accounts, err := newTestClient(server, nil).LinkDetails(context.Background(), testToken, makeSteamIDs(2))
	require.NoError(t, err)
	require.Empty(t, accounts)
	require.Equal(t, "access_token="+testToken+
		"&steamids[0]=76561197960265729&steamids[1]=76561197960265730", recorded.queries[0])
}

func TestResolveVanityURL(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("vanityurl") == "known" {
			_, _ = w.Write([]byte(`{"response":{"steamid":"76561197960287930","success":1}}`))

			return
		}
		_, _ = w.Write([]byte(`{"response":{"success":42}}`))
	})
	client := newTestClient(server, nil)

	sid, err := client.ResolveVanityURL(context.Background(), testKey, "known")
	require.NoError(t, err)
	require.Equal(t, "76561197960287930", sid.String())

	_, errMissing := client.ResolveVanityURL(context.Background(), testKey, "unknown")
	require.ErrorIs(t, errMissing, steamweb.ErrVanityNotFound)
}
