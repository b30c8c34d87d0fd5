// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the local database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles Apple Music token acquisition and inspection.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Apple Music authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Capture a Music User Token through the browser",
				Action: r.AuthLogin,
			},
			{
				Name:  "import",
				Usage: "Import tokens from a 'Copy as cURL' request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command copied from browser dev tools",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing the cURL command",
					},
				},
				Action: r.AuthImport,
			},
			{
				Name:   "status",
				Usage:  "Check configured tokens against the API",
				Action: r.AuthStatus,
			},
		},
	}
}

// albumCommand fetches, inspects, and exports album snapshots.
func albumCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "album",
		Usage: "Fetch and export album snapshots",
		Commands: []*cli.Command{
			{
				Name:  "catalog",
				Usage: "Show the catalog version of an album",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the snapshot as JSON",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read the last fetched snapshot from the local cache",
					},
				},
				Action: r.AlbumCatalog,
			},
			{
				Name:  "library",
				Usage: "Show an album version from your library",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the snapshot as JSON",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read the last fetched snapshot from the local cache",
					},
				},
				Action: r.AlbumLibrary,
			},
			{
				Name:  "export",
				Usage: "Export album snapshots to files",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Album id to export, repeatable ('l.' prefix for library ids)",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: json, csv, markdown, or txt",
						Value: "json",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent fetch workers",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "rate",
						Usage: "Maximum requests per second",
						Value: 5,
					},
				},
				Action: r.AlbumExport,
			},
		},
	}
}

// migrateCommand plans and applies album version migrations.
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Migrate a library album to another version",
		Commands: []*cli.Command{
			{
				Name:  "plan",
				Usage: "Compute the migration plan without changing anything",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Library album id of the version you have",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "dest",
						Usage:    "Catalog album id of the version to migrate to",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the plan as JSON",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Record the plan in run history",
					},
				},
				Action: r.MigratePlan,
			},
			{
				Name:  "apply",
				Usage: "Apply the migration to your library",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Library album id of the version you have",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "dest",
						Usage:    "Catalog album id of the version to migrate to",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
				Action: r.MigrateApply,
			},
			{
				Name:  "ui",
				Usage: "Review and apply the migration interactively",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Library album id of the version you have",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "dest",
						Usage:    "Catalog album id of the version to migrate to",
						Required: true,
					},
				},
				Action: r.MigrateUI,
			},
		},
	}
}

// historyCommand inspects recorded migration runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded migration runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded runs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (planned, applied, partial, failed)",
					},
					&cli.StringFlag{
						Name:  "storefront",
						Usage: "Filter by storefront",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Filter by source album id",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum runs to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show one run in detail",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON, including the recorded plan",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

// apiCommand issues raw requests against the Apple Music API.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Raw Apple Music API access for debugging",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Perform an authenticated GET request",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON responses",
					},
				},
				Action: r.APIGet,
			},
		},
	}
}
