package main

import (
	"testing"

	"github.com/leighmacdonald/cs2-friends/internal/presence"
	"github.com/stretchr/testify/require"
)

func TestRenderFriends(t *testing.T) {
	require.Contains(t, renderFriends(nil), "No friends are playing")

	output := renderFriends([]presence.Friend{
		{DisplayName: "Player One", GameMode: "casual", GameMap: "de_dust2", InSupportedMode: true, JoinAvailable: true},
		{SteamID: "76561197960287931", GameMode: "competitive"},
	})
	require.Contains(t, output, "Player One")
	require.Contains(t, output, "de_dust2")
	require.Contains(t, output, "76561197960287931")
	require.Contains(t, output, "yes")
}
