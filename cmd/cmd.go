// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles first-run setup
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config.toml if missing and run database migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles YouTube authorization
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "YouTube authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize read access to your YouTube account using OAuth2",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show whether a usable token is cached",
				Action: r.AuthStatus,
			},
		},
	}
}

// playlistCommand handles metadata sync and reconciliation
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist metadata operations",
		Commands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Refresh one playlist and its videos",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to refresh",
						Required: true,
					},
				},
				Action: r.PlaylistUpdate,
			},
			{
				Name:   "update-all",
				Usage:  "Refresh every playlist of the authenticated user",
				Action: r.PlaylistUpdateAll,
			},
			{
				Name:  "delta",
				Usage: "Compare your remote playlists with the local store",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "List all and unknown playlists",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Persist the result as a snapshot",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, csv, markdown, json)",
						Value:   "text",
					},
				},
				Action: r.PlaylistDelta,
			},
			{
				Name:  "snapshot",
				Usage: "Show a saved delta snapshot (id or latest)",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:  "selector",
						Value: "latest",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, csv, markdown, json)",
						Value:   "text",
					},
					&cli.BoolFlag{
						Name:  "list",
						Usage: "List recent snapshots instead",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of snapshots to list",
						Value: 10,
					},
				},
				Action: r.PlaylistSnapshot,
			},
			{
				Name:  "export",
				Usage: "Export a stored playlist and its videos",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, csv, markdown, json)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write files to this path instead of stdout",
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// stashCommand handles media downloads
func stashCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stash",
		Usage: "Download playlist or video media",
		Commands: []*cli.Command{
			{
				Name:  "playlist",
				Usage: "Stash a playlist in paced batches",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to stash",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to stash.output_path)",
					},
					&cli.BoolFlag{
						Name:  "audio-only",
						Usage: "Download audio only",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Videos per batch",
					},
					&cli.IntFlag{
						Name:  "batch-delay",
						Usage: "Seconds to wait between batches",
					},
					&cli.IntFlag{
						Name:  "summary-interval",
						Usage: "Seconds between progress summaries while waiting",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Parallel downloads within a batch",
					},
					&cli.BoolFlag{
						Name:  "folder",
						Usage: "Stash into a subfolder named after the playlist",
						Value: true,
					},
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.StashPlaylist,
			},
			{
				Name:      "video",
				Usage:     "Stash one or more videos by URL or ID",
				ArgsUsage: "<url|id>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to stash.output_path)",
					},
					&cli.BoolFlag{
						Name:  "audio-only",
						Usage: "Download audio only",
					},
				},
				Action: r.StashVideo,
			},
		},
	}
}

// agentCommand runs the natural-language command loop
func agentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "agent",
		Usage:     "Describe what to do in plain language",
		ArgsUsage: "[request]",
		Action:    r.Agent,
	}
}

// tuiCommand launches the interactive playlist stasher
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch interactive TUI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file path (the TUI owns the terminal)",
				Value: "./tmp/stasher-tui.log",
			},
			&cli.BoolFlag{
				Name:  "audio-only",
				Usage: "Download audio only",
			},
		},
		Action: r.TUI,
	}
}
