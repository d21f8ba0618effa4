package agent

import (
	"fmt"
	"strings"

	"github.com/desertthunder/stasher/internal/shared"
)

// Command is one of the operations the agent can dispatch.
type Command int

const (
	UpdatePlaylist Command = iota
	UpdateAllPlaylists
	StashVideo
	CheckPlaylistDelta
)

var commandNames = map[Command]string{
	UpdatePlaylist:     "update_playlist",
	UpdateAllPlaylists: "update_all_playlists",
	StashVideo:         "stash_video",
	CheckPlaylistDelta: "check_playlist_delta",
}

func (c Command) String() string {
	return commandNames[c]
}

// Commands lists every command in declaration order.
func Commands() []Command {
	return []Command{UpdatePlaylist, UpdateAllPlaylists, StashVideo, CheckPlaylistDelta}
}

// ParseCommand maps a planner command name to a [Command].
func ParseCommand(name string) (Command, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range Commands() {
		if commandNames[c] == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", shared.ErrInvalidCommand, name)
}
