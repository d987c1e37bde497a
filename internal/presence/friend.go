package presence

import (
	"maps"
	"strings"

	"github.com/leighmacdonald/cs2-friends/internal/steamweb"
	"github.com/leighmacdonald/steamid/v4/steamid"
)

const (
	// AppID is the steam app id of Counter-Strike 2.
	AppID         = "730"
	connectPrefix = "+gcconnect"
	stateLobby    = "lobby"
)

var supportedModes = map[string]bool{ //nolint:gochecknoglobals
	"casual":     true,
	"deathmatch": true,
}

// Friend is a friend currently in game.
type Friend struct {
	SteamID         string `json:"steamId"`
	DisplayName     string `json:"displayName"`
	AvatarURL       string `json:"avatarUrl"`
	Status          string `json:"status"`
	GameMode        string `json:"gameMode"`
	GameState       string `json:"gameState"`
	GameMap         string `json:"gameMap"`
	GameScore       string `json:"gameScore"`
	GameServerID    string `json:"gameServerId"`
	InSupportedMode bool   `json:"inSupportedMode"`
	JoinAvailable   bool   `json:"joinAvailable"`
	ConnectString   string `json:"connectString"`
}

// InSupportedMode reports whether the friend is in a mode we can offer to join and is past the lobby.
func InSupportedMode(gameMode string, gameState string) bool {
	return supportedModes[gameMode] && gameState != "" && gameState != stateLobby
}

// JoinAvailable reports whether a supported mode friend has a usable connect command.
func JoinAvailable(supported bool, connect string) bool {
	return supported && strings.HasPrefix(connect, connectPrefix)
}

// SelectAvatar picks the best available avatar image.
func SelectAvatar(summary steamweb.PlayerSummary) string {
	for _, candidate := range []string{summary.AvatarFull, summary.Avatar, summary.AvatarMedium} {
		if candidate != "" {
			return candidate
		}
	}

	return ""
}

// AvatarCache maps a steam id to the best known avatar url. It is owned by the caller and
// never modified by this package; updates are returned as a new map.
type AvatarCache map[steamid.SteamID]string

// Missing returns the ids that have no cached avatar, in input order.
func (c AvatarCache) Missing(steamIDs steamid.Collection) steamid.Collection {
	var missing steamid.Collection
	for _, sid := range steamIDs {
		if c[sid] == "" {
			missing = append(missing, sid)
		}
	}

	return missing
}

// Merge returns a new cache containing the existing entries overlaid with the avatars from summaries.
func (c AvatarCache) Merge(summaries []steamweb.PlayerSummary) AvatarCache {
	merged := make(AvatarCache, len(c)+len(summaries))
	maps.Copy(merged, c)

	for _, summary := range summaries {
		sid := steamid.New(summary.SteamID)
		if !sid.Valid() {
			continue
		}

		if avatar := SelectAvatar(summary); avatar != "" {
			merged[sid] = avatar
		}
	}

	return merged
}
