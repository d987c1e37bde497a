package steamweb_test

import (
	"encoding/json"
	"testing"

	"github.com/leighmacdonald/cs2-friends/internal/steamweb"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/stretchr/testify/require"
)

func TestFriendIDsTokenMode(t *testing.T) {
	const payload = `{"response":{"bincremental":false,"friendsList":{"friends":[
		{"ulfriendid":"76561197960287930","efriendrelationship":3},
		{"ulfriendid":"76561197960287931","efriendrelationship":2},
		{"ulfriendid":"76561197960287932","efriendrelationship":"3"},
		{"ulfriendid":"not-an-id","efriendrelationship":3},
		"garbage",
		{"ulfriendid":76561197960287933,"efriendrelationship":3}
	]}}}`

	ids := steamweb.FriendIDs(json.RawMessage(payload), steamweb.ModeToken)
	require.Equal(t, []string{"76561197960287930", "76561197960287932", "76561197960287933"}, ids.ToStringSlice())

	again := steamweb.FriendIDs(json.RawMessage(payload), steamweb.ModeToken)
	require.Equal(t, ids, again)
}

func TestFriendIDsKeyMode(t *testing.T) {
	const payload = `{"friendslist":{"friends":[
		{"steamid":"76561197960287930","relationship":"friend","friend_since":1},
		{"steamid":"76561197960287931","relationship":"requestrecipient"},
		{"steamid":"76561197960287932","relationship":"friend"}
	]}}`

	ids := steamweb.FriendIDs(json.RawMessage(payload), steamweb.ModeKey)
	require.Equal(t, []string{"76561197960287930", "76561197960287932"}, ids.ToStringSlice())

	// The token shaped payload does not satisfy key mode parsing.
	require.Empty(t, steamweb.FriendIDs(json.RawMessage(`{"response":{"friendslist":{"friends":[]}}}`), steamweb.ModeKey))
}

func TestFriendIDsMalformed(t *testing.T) {
	for _, payload := range []string{`{}`, `[]`, `null`, `{"friendslist":"x"}`, `{"response":{"friendslist":{"friends":{}}}}`} {
		require.Empty(t, steamweb.FriendIDs(json.RawMessage(payload), steamweb.ModeKey), payload)
		require.Empty(t, steamweb.FriendIDs(json.RawMessage(payload), steamweb.ModeToken), payload)
	}
}

func TestPlayerSummaries(t *testing.T) {
	tokenShape := steamweb.PlayerSummaries(json.RawMessage(`{"players":[{"steamid":"1","avatarfull":"f"}]}`))
	require.Equal(t, []steamweb.PlayerSummary{{SteamID: "1", AvatarFull: "f"}}, tokenShape)

	keyShape := steamweb.PlayerSummaries(json.RawMessage(`{"response":{"players":[{"steamid":"2","avatar":"a"}]}}`))
	require.Equal(t, []steamweb.PlayerSummary{{SteamID: "2", Avatar: "a"}}, keyShape)

	// First non-empty match wins.
	both := steamweb.PlayerSummaries(json.RawMessage(`{"players":[],"response":{"players":[{"steamid":"3"}]}}`))
	require.Equal(t, []steamweb.PlayerSummary{{SteamID: "3"}}, both)

	require.Empty(t, steamweb.PlayerSummaries(json.RawMessage(`{"response":{}}`)))
}

func TestLinkDetails(t *testing.T) {
	const payload = `{"response":{"accounts":[{
		"public_data":{"steamid":"76561197960287930","persona_name":"Player One","profile_url":"p1"},
		"private_data":{"persona_state":1,"game_id":"730","game_server_steam_id":"90000000000000001",
			"rich_presence_kv":"\"RP\"{\"status\" \"Playing\"}","last_seen_online":1700000000}
	},{
		"public_data":{"steamid":"76561197960287931"}
	}]}}`

	accounts := steamweb.LinkDetails(json.RawMessage(payload))
	require.Len(t, accounts, 2)
	require.Equal(t, "Player One", accounts[0].Public.PersonaName)
	require.Equal(t, "730", accounts[0].Private.GameID)
	require.Equal(t, "90000000000000001", accounts[0].Private.GameServerSteamID)
	require.Equal(t, `"RP"{"status" "Playing"}`, accounts[0].Private.RichPresenceKV)
	require.Equal(t, int64(1700000000), accounts[0].Private.LastSeenOnline)
	require.Empty(t, accounts[1].Private.GameID)
}

func TestVanitySteamID(t *testing.T) {
	sid, found := steamweb.VanitySteamID(json.RawMessage(`{"response":{"steamid":"76561197960287930","success":1}}`))
	require.True(t, found)
	require.True(t, sid.Equal(steamid.New("76561197960287930")))

	_, missing := steamweb.VanitySteamID(json.RawMessage(`{"response":{"success":42,"message":"No match"}}`))
	require.False(t, missing)
}
