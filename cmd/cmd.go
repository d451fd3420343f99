// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/do-hu-so/GD-Ba-Than/internal/formatter"
)

// rootFlags are visible to every subcommand.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-sync",
			Usage: "Skip the sync that runs before commands when sync.on_start is set",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func kindFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "Only photos (image) or videos (video)",
	}
}

func dirFlag(r *Runner) cli.Flag {
	return &cli.StringFlag{
		Name:    "dir",
		Aliases: []string{"d"},
		Usage:   "Output directory",
		Value:   r.config.Download.Dir,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml populated with defaults",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// mediaCommands handle browsing and editing the local media cache.
func mediaCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:    "list",
			Aliases: []string{"ls"},
			Usage:   "List media, newest first",
			Flags: []cli.Flag{
				kindFlag(),
				&cli.IntFlag{
					Name:    "year",
					Aliases: []string{"y"},
					Usage:   "Only media from this year",
				},
				&cli.BoolFlag{
					Name:  "json",
					Usage: "Output raw JSON",
				},
				&cli.BoolFlag{
					Name:  "pretty",
					Usage: "Pretty-print output",
				},
			},
			Action: r.List,
		},
		{
			Name:      "show",
			Usage:     "Show a single media item",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "Output raw JSON",
				},
			},
			Action: r.Show,
		},
		{
			Name:   "years",
			Usage:  "List the years that have media, newest first",
			Action: r.Years,
		},
		{
			Name:      "upload",
			Usage:     "Upload a photo or video and add it to the gallery",
			Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "title",
					Aliases:  []string{"t"},
					Usage:    "Title shown in the gallery",
					Required: true,
				},
				&cli.IntFlag{
					Name:     "year",
					Aliases:  []string{"y"},
					Usage:    "Year the photo or video was taken",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "description",
					Usage: "Optional description",
				},
				&cli.StringFlag{
					Name:  "by",
					Usage: "Name of the uploader",
				},
			},
			Action: r.Upload,
		},
		{
			Name:      "edit",
			Usage:     "Change the title and description of an item",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "title",
					Aliases:  []string{"t"},
					Usage:    "New title",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "description",
					Usage: "New description",
				},
			},
			Action: r.Edit,
		},
		{
			Name:      "remove",
			Aliases:   []string{"rm"},
			Usage:     "Remove an item from the local gallery (the remote copy is kept)",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "remote",
					Usage: "Also delete the remote copy",
				},
			},
			Action: r.Remove,
		},
		{
			Name:      "like",
			Usage:     "Toggle your like on an item",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Action:    r.Like,
		},
		{
			Name:      "likes",
			Usage:     "Show the like count of an item, or every item you liked",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Action:    r.Likes,
		},
		{
			Name:      "open",
			Usage:     "Open an item in the system browser",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "thumbnail",
					Usage: "Open the thumbnail instead of the original",
				},
			},
			Action: r.Open,
		},
	}
}

// transferCommands handle syncing, downloading and exporting.
func transferCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "sync",
			Usage:  "Fetch new media from Cloudinary",
			Action: r.Sync,
		},
		{
			Name:      "download",
			Aliases:   []string{"dl"},
			Usage:     "Download a single item",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags:     []cli.Flag{dirFlag(r)},
			Action:    r.Download,
		},
		{
			Name:      "download-year",
			Usage:     "Download every item from a year",
			Arguments: []cli.Argument{&cli.IntArg{Name: "year"}},
			Flags: []cli.Flag{
				dirFlag(r),
				kindFlag(),
				&cli.BoolFlag{
					Name:  "thumbnails",
					Usage: "Also write JPEG thumbnails of photos",
				},
				&cli.IntFlag{
					Name:  "workers",
					Usage: "Concurrent downloads (max 10)",
					Value: r.config.Download.Workers,
				},
				&cli.BoolFlag{
					Name:  "skip-existing",
					Usage: "Skip items already downloaded to the same path",
				},
			},
			Action: r.DownloadYear,
		},
		{
			Name:  "export",
			Usage: "Export the gallery listing",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Usage:   "Export format (" + strings.Join(formatter.Formats, ", ") + ")",
					Value:   "markdown",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "Output file path (stdout when empty)",
				},
				&cli.IntFlag{
					Name:    "year",
					Aliases: []string{"y"},
					Usage:   "Only media from this year",
				},
				kindFlag(),
			},
			Action: r.Export,
		},
	}
}

// apiCommand handles direct calls to the listing proxy.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the listing proxy",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET to the listing proxy, prints raw JSON",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:   "health",
				Usage:  "Check that the listing proxy is up",
				Action: r.APIHealth,
			},
		},
	}
}

// serveCommand runs the listing proxy.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the listing proxy (/api/cloudinary)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on",
				Value: r.config.Server.Host,
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Value:   r.config.Server.Port,
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for browsing the gallery.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive gallery browser",
		Flags: []cli.Flag{
			dirFlag(r),
			&cli.BoolFlag{
				Name:  "thumbnails",
				Usage: "Write JPEG thumbnails of downloaded photos",
			},
		},
		Action: r.TUI,
	}
}
