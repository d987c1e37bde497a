// Package presence turns raw friend and link detail data into the list of friends currently playing
// Counter-Strike 2, along with whether their game can be joined.
package presence

import (
	"regexp"
)

// RichPresence holds the fields we extract from a rich presence key value blob. Missing keys are
// left empty.
type RichPresence struct {
	Status            string `json:"status"`
	GameState         string `json:"game_state"`
	GameMode          string `json:"game_mode"`
	GameMap           string `json:"game_map"`
	GameScore         string `json:"game_score"`
	Connect           string `json:"connect"`
	GameServerSteamID string `json:"game_server_steam_id"`
}

type richPresenceField struct {
	pattern *regexp.Regexp
	set     func(rp *RichPresence, value string)
}

func newRichPresenceField(key string, set func(rp *RichPresence, value string)) richPresenceField {
	return richPresenceField{
		pattern: regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*"([^"]*)"`),
		set:     set,
	}
}

var richPresenceFields = []richPresenceField{ //nolint:gochecknoglobals
	newRichPresenceField("status", func(rp *RichPresence, v string) { rp.Status = v }),
	newRichPresenceField("game:state", func(rp *RichPresence, v string) { rp.GameState = v }),
	newRichPresenceField("game:mode", func(rp *RichPresence, v string) { rp.GameMode = v }),
	newRichPresenceField("game:map", func(rp *RichPresence, v string) { rp.GameMap = v }),
	newRichPresenceField("game:score", func(rp *RichPresence, v string) { rp.GameScore = v }),
	newRichPresenceField("connect", func(rp *RichPresence, v string) { rp.Connect = v }),
	newRichPresenceField("game_server_steam_id", func(rp *RichPresence, v string) { rp.GameServerSteamID = v }),
}

// DecodeRichPresence extracts the known fields out of a rich presence blob. This is not a KeyValues
// parser, each key is searched for independently as a `"key" "value"` pair and the first match wins.
func DecodeRichPresence(blob string) RichPresence {
	var presence RichPresence
	if blob == "" {
		return presence
	}

	for _, field := range richPresenceFields {
		match := field.pattern.FindStringSubmatch(blob)
		if match == nil {
			continue
		}

		field.set(&presence, match[1])
	}

	return presence
}
