// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes config and database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file, initialize the database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// transferCommand runs and inspects playlist transfers
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "transfer",
		Aliases: []string{"tx"},
		Usage:   "Transfer a playlist to another service",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "from",
				Usage:    "Source service (spotify, youtube, text)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Destination service (spotify, youtube, applemusic)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Playlist id, share URL, or track file path",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: text, markdown, csv, json",
				Value: "text",
			},
			&cli.BoolFlag{
				Name:  "no-save",
				Usage: "Skip recording the transfer in history",
			},
		},
		Action: r.TransferRun,
	}
}

// playlistsCommand exports playlists for inspection or backup
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Playlist export operations",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Export a playlist's track listing",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "from",
						Usage:    "Source service (spotify, youtube, text)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "playlist",
						Aliases:  []string{"p"},
						Usage:    "Playlist id, share URL, or track file path",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: text, csv, json",
						Value: "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (stdout when omitted)",
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// historyCommand inspects past transfer runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect past transfers",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent transfers",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of transfers to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show one transfer, including its unmatched tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a transfer record",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.HistoryDelete,
			},
		},
	}
}
