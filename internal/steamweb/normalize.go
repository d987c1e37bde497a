package steamweb

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/leighmacdonald/steamid/v4/steamid"
)

const (
	// relationshipConfirmed is the token mode relationship code for an accepted friend.
	relationshipConfirmed = 3
	relationshipFriend    = "friend"
)

var invalidSteamID steamid.SteamID //nolint:gochecknoglobals

// PlayerSummary is the subset of a player summary we use.
type PlayerSummary struct {
	SteamID      string `json:"steamid"`
	PersonaName  string `json:"personaname"`
	ProfileURL   string `json:"profileurl"`
	Avatar       string `json:"avatar"`
	AvatarMedium string `json:"avatarmedium"`
	AvatarFull   string `json:"avatarfull"`
	PersonaState int    `json:"personastate"`
	GameID       string `json:"gameid"`
}

// LinkAccount is a single account from GetPlayerLinkDetails.
type LinkAccount struct {
	Public  LinkPublicData
	Private LinkPrivateData
}

type LinkPublicData struct {
	SteamID     string
	PersonaName string
	ProfileURL  string
}

type LinkPrivateData struct {
	PersonaState      int
	GameID            string
	GameServerSteamID string
	LobbySteamID      string
	GameExtraInfo     string
	RichPresenceKV    string
	LastSeenOnline    int64
}

type tokenFriendsList struct {
	Response struct {
		FriendsList struct {
			Friends []json.RawMessage `json:"friends"`
		} `json:"friendslist"`
	} `json:"response"`
}

type tokenFriend struct {
	ID           json.RawMessage `json:"ulfriendid"`
	Relationship json.RawMessage `json:"efriendrelationship"`
}

type keyFriendsList struct {
	FriendsList struct {
		Friends []json.RawMessage `json:"friends"`
	} `json:"friendslist"`
}

type keyFriend struct {
	SteamID      json.RawMessage `json:"steamid"`
	Relationship json.RawMessage `json:"relationship"`
}

// FriendIDs extracts the confirmed friends from a friends list response. The shape of the response
// depends on the auth mode used to fetch it. Malformed payloads produce an empty collection.
func FriendIDs(raw json.RawMessage, mode Mode) steamid.Collection {
	if mode == ModeToken {
		return tokenFriendIDs(raw)
	}

	return keyFriendIDs(raw)
}

func tokenFriendIDs(raw json.RawMessage) steamid.Collection {
	var list tokenFriendsList
	if err := json.Unmarshal(raw, &list); err != nil {
		return steamid.Collection{}
	}

	ids := steamid.Collection{}
	for _, entry := range list.Response.FriendsList.Friends {
		var friend tokenFriend
		if err := json.Unmarshal(entry, &friend); err != nil {
			continue
		}

		code, errCode := strconv.Atoi(rawString(friend.Relationship))
		if errCode != nil || code != relationshipConfirmed {
			continue
		}

		if sid := steamid.New(rawString(friend.ID)); sid.Valid() {
			ids = append(ids, sid)
		}
	}

	return ids
}

func keyFriendIDs(raw json.RawMessage) steamid.Collection {
	var list keyFriendsList
	if err := json.Unmarshal(raw, &list); err != nil {
		return steamid.Collection{}
	}

	ids := steamid.Collection{}
	for _, entry := range list.FriendsList.Friends {
		var friend keyFriend
		if err := json.Unmarshal(entry, &friend); err != nil {
			continue
		}

		if rawString(friend.Relationship) != relationshipFriend {
			continue
		}

		if sid := steamid.New(rawString(friend.SteamID)); sid.Valid() {
			ids = append(ids, sid)
		}
	}

	return ids
}

type summariesPayload struct {
	Players  json.RawMessage `json:"players"`
	Response struct {
		Players json.RawMessage `json:"players"`
	} `json:"response"`
}

// PlayerSummaries reads the players from either summary response shape. Token mode responses carry
// `players` at the top level, key mode responses nest it under `response`. The first non-empty list wins.
func PlayerSummaries(raw json.RawMessage) []PlayerSummary {
	var payload summariesPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	for _, source := range []json.RawMessage{payload.Players, payload.Response.Players} {
		if players := decodeSummaries(source); len(players) > 0 {
			return players
		}
	}

	return nil
}

func decodeSummaries(raw json.RawMessage) []PlayerSummary {
	if len(raw) == 0 {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	players := make([]PlayerSummary, 0, len(entries))
	for _, entry := range entries {
		var player PlayerSummary
		if err := json.Unmarshal(entry, &player); err != nil {
			continue
		}

		players = append(players, player)
	}

	return players
}

type linkDetailsPayload struct {
	Response struct {
		Accounts []json.RawMessage `json:"accounts"`
	} `json:"response"`
}

type linkAccountPayload struct {
	PublicData struct {
		SteamID     json.RawMessage `json:"steamid"`
		PersonaName string          `json:"persona_name"`
		ProfileURL  string          `json:"profile_url"`
	} `json:"public_data"`
	PrivateData struct {
		PersonaState      json.RawMessage `json:"persona_state"`
		GameID            json.RawMessage `json:"game_id"`
		GameServerSteamID json.RawMessage `json:"game_server_steam_id"`
		LobbySteamID      json.RawMessage `json:"lobby_steam_id"`
		GameExtraInfo     string          `json:"game_extra_info"`
		RichPresenceKV    string          `json:"rich_presence_kv"`
		LastSeenOnline    json.RawMessage `json:"last_seen_online"`
	} `json:"private_data"`
}

// LinkDetails reads the accounts from a GetPlayerLinkDetails response. Missing fields are left empty.
func LinkDetails(raw json.RawMessage) []LinkAccount {
	var payload linkDetailsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	accounts := make([]LinkAccount, 0, len(payload.Response.Accounts))
	for _, entry := range payload.Response.Accounts {
		var account linkAccountPayload
		if err := json.Unmarshal(entry, &account); err != nil {
			continue
		}

		personaState, _ := strconv.Atoi(rawString(account.PrivateData.PersonaState))
		lastSeen, _ := strconv.ParseInt(rawString(account.PrivateData.LastSeenOnline), 10, 64)

		accounts = append(accounts, LinkAccount{
			Public: LinkPublicData{
				SteamID:     rawString(account.PublicData.SteamID),
				PersonaName: account.PublicData.PersonaName,
				ProfileURL:  account.PublicData.ProfileURL,
			},
			Private: LinkPrivateData{
				PersonaState:      personaState,
				GameID:            rawString(account.PrivateData.GameID),
				GameServerSteamID: rawString(account.PrivateData.GameServerSteamID),
				LobbySteamID:      rawString(account.PrivateData.LobbySteamID),
				GameExtraInfo:     account.PrivateData.GameExtraInfo,
				RichPresenceKV:    account.PrivateData.RichPresenceKV,
				LastSeenOnline:    lastSeen,
			},
		})
	}

	return accounts
}

type vanityPayload struct {
	Response struct {
		Success json.RawMessage `json:"success"`
		SteamID json.RawMessage `json:"steamid"`
	} `json:"response"`
}

// VanitySteamID reads the resolved steam id from a ResolveVanityURL response.
func VanitySteamID(raw json.RawMessage) (steamid.SteamID, bool) {
	var payload vanityPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return invalidSteamID, false
	}

	if rawString(payload.Response.Success) != "1" {
		return invalidSteamID, false
	}

	sid := steamid.New(rawString(payload.Response.SteamID))
	if !sid.Valid() {
		return invalidSteamID, false
	}

	return sid, true
}

// rawString returns a json string or number value as plain text. Anything else is empty.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	if raw[0] == '"' {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return ""
		}

		return value
	}

	if raw[0] == '{' || raw[0] == '[' || raw[0] == 't' || raw[0] == 'f' {
		return ""
	}

	return string(raw)
}
