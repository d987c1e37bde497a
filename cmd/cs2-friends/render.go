package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/leighmacdonald/cs2-friends/internal/presence"
)

var (
	accent      = lipgloss.Color("#f4722b")
	gray        = lipgloss.Color("#3e3e3e")
	white       = lipgloss.Color("#cccccc")
	green       = lipgloss.Color("#4d7455")
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	rowStyle    = lipgloss.NewStyle().Foreground(white).Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(gray).Padding(0, 1)
	joinStyle   = lipgloss.NewStyle().Foreground(green).Bold(true).Padding(0, 1)
	infoMessage = lipgloss.NewStyle().Foreground(white).Italic(true)
)

// colJoin is the index of the last column.
const colJoin = 5

func renderFriends(friends []presence.Friend) string {
	if len(friends) == 0 {
		return infoMessage.Render("No friends are playing right now")
	}

	rows := make([][]string, 0, len(friends))
	for _, friend := range friends {
		join := "-"
		if friend.JoinAvailable {
			join = "yes"
		}

		name := friend.DisplayName
		if name == "" {
			name = friend.SteamID
		}

		rows = append(rows, []string{name, friend.GameMode, friend.GameMap, friend.GameScore, friend.Status, join})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		BorderHeader(true).
		BorderStyle(mutedStyle).
		Headers("Name", "Mode", "Map", "Score", "Status", "Join").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case !friends[row].InSupportedMode:
				return mutedStyle
			case col == colJoin && friends[row].JoinAvailable:
				return joinStyle
			default:
				return rowStyle
			}
		}).
		Render()
}
