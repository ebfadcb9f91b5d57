package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sahib/nandfs/version"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	colorlog "github.com/sahib/nandfs/util/log"
)

func init() {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.DebugLevel)
	log.SetFormatter(&colorlog.FancyLogFormatter{
		UseColors: true,
	})
}

func formatGroup(category string) string {
	return strings.ToUpper(category) + " COMMANDS"
}

func setLogPath(path string) error {
	switch path {
	case "stdout":
		log.SetOutput(os.Stdout)
	case "stderr":
		log.SetOutput(os.Stderr)
	default:
		fd, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}

		log.SetOutput(fd)
	}

	return nil
}

////////////////////////////
// Commandline definition //
////////////////////////////

// RunCmdline starts the nandfs commandline tool.
func RunCmdline(args []string) int {
	app := cli.NewApp()
	app.Name = "nandfs"
	app.Usage = "Cached object storage over pluggable chunk stores"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf(
		"%s [buildtime: %s]",
		version.String(),
		version.BuildTime,
	)
	app.CommandNotFound = commandNotFound

	// Groups:
	repoGroup := formatGroup("repository")
	objGroup := formatGroup("object")
	miscGroup := formatGroup("misc")

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "no-password,x",
			Usage: "Use 'no-password' as password",
		},
		cli.StringFlag{
			Name:  "password,p",
			Usage: "Supply the password on the commandline",
			Value: "",
		},
		cli.StringFlag{
			Name:   "path",
			Usage:  "Path of the repository (defaults to ~/.nandfs)",
			Value:  "",
			EnvVar: "NANDFS_PATH",
		},
		cli.StringFlag{
			Name:   "log-path,l",
			Usage:  "Log output ('stderr', 'stdout' or a file path)",
			Value:  "stderr",
			EnvVar: "NANDFS_LOG",
		},
		cli.BoolFlag{
			Name:  "verbose,V",
			Usage: "Show what happens behind the scenes",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:        "init",
			Category:    repoGroup,
			Usage:       "Create an empty repository",
			ArgsUsage:   "[<folder>]",
			Description: "Create the repository folder, write the initial config\n   and set up the chunk store. Use --encrypt if the data should\n   not be stored in plain text.",
			Action:      handleInit,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "backend,b",
					Value: "badger",
					Usage: "What chunk store backend to use for the new repo",
				},
				cli.StringFlag{
					Name:  "compression,c",
					Value: "snappy",
					Usage: "What compression to apply to stored chunks",
				},
				cli.BoolFlag{
					Name:  "encrypt,e",
					Usage: "Encrypt all chunks with a key derived from a password",
				},
			},
		},
		cli.Command{
			Name:        "stats",
			Category:    repoGroup,
			Usage:       "Show device counters",
			Description: "Show the object count and the state of the chunk cache",
			Action:      withDevice(handleStats),
		},
		cli.Command{
			Name:        "export",
			Category:    repoGroup,
			Usage:       "Pack the whole repository into an archive",
			ArgsUsage:   "<archive>",
			Description: "Write the repository folder (config and store) as a\n   gzipped tar archive. The repository must not be in use",
			Action:      withArgCheck(needAtLeast(1), handleExport),
		},
		cli.Command{
			Name:        "import",
			Category:    repoGroup,
			Usage:       "Restore a repository from an archive",
			ArgsUsage:   "<archive> [<folder>]",
			Description: "Unpack an archive created by `export` into a fresh\n   repository folder",
			Action:      withArgCheck(needAtLeast(1), handleImport),
		},
		cli.Command{
			Name:        "sync",
			Category:    repoGroup,
			Usage:       "Flush all cached writes to the store",
			Description: "Write back every dirty cache slot. Happens implicitly on unmount",
			Action:      withDevice(handleSync),
		},
		cli.Command{
			Name:        "new",
			Category:    objGroup,
			Usage:       "Allocate a new empty object",
			Description: "Allocate a new empty object and print its id",
			Action:      withDevice(handleNew),
		},
		cli.Command{
			Name:        "ls",
			Category:    objGroup,
			Usage:       "List all objects",
			Description: "List the id and size of every object on the device",
			Action:      withDevice(handleList),
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "format,f",
					Usage: "Format the output by a template (fields: .ID, .Size)",
				},
			},
		},
		cli.Command{
			Name:        "put",
			Category:    objGroup,
			Usage:       "Store a file in an object",
			ArgsUsage:   "<file> [<object-id>]",
			Description: "Copy a local file (or stdin via '-') into an object.\n   Without an id a new object is created. The id is printed on success.",
			Action:      withArgCheck(needAtLeast(1), withDevice(handlePut)),
			Flags: []cli.Flag{
				cli.Int64Flag{
					Name:  "offset,o",
					Usage: "Write at this byte offset instead of replacing the object",
				},
			},
		},
		cli.Command{
			Name:        "cat",
			Category:    objGroup,
			Usage:       "Output an object's data",
			ArgsUsage:   "<object-id>",
			Description: "Write the contents of the object to stdout",
			Action:      withArgCheck(needAtLeast(1), withDevice(handleCat)),
			Flags: []cli.Flag{
				cli.Int64Flag{
					Name:  "offset,o",
					Usage: "Start reading at this byte offset",
				},
				cli.StringFlag{
					Name:  "size,s",
					Usage: "Read at most this many bytes (e.g. '4KB')",
				},
			},
		},
		cli.Command{
			Name:        "rm",
			Category:    objGroup,
			Usage:       "Remove an object",
			ArgsUsage:   "<object-id>",
			Description: "Remove the object and all of its chunks. Pending writes are thrown away",
			Action:      withArgCheck(needAtLeast(1), withDevice(handleRm)),
		},
		cli.Command{
			Name:        "truncate",
			Category:    objGroup,
			Usage:       "Cut an object to a certain size",
			ArgsUsage:   "<object-id> <size>",
			Description: "Shrink or grow the object to <size> bytes (e.g. '16KB').\n   Growing leaves a hole that reads as zeros",
			Action:      withArgCheck(needAtLeast(2), withDevice(handleTruncate)),
		},
		cli.Command{
			Name:     "config",
			Category: miscGroup,
			Usage:    "Read and modify the repository configuration",
			Subcommands: []cli.Command{
				cli.Command{
					Name:        "ls",
					Usage:       "List all config keys with their values",
					Description: "Show the current configuration, including documentation",
					Action:      handleConfigList,
				},
				cli.Command{
					Name:        "get",
					Usage:       "Print a single config value",
					Description: "Print the current value of <configkey> to stdout",
					ArgsUsage:   "<configkey>",
					Action:      withArgCheck(needAtLeast(1), handleConfigGet),
				},
				cli.Command{
					Name:        "set",
					Usage:       "Change a config value",
					Description: "Change <configkey> to <value>. Some keys need a remount to take effect",
					ArgsUsage:   "<configkey> <value>",
					Action:      withArgCheck(needAtLeast(2), handleConfigSet),
				},
				cli.Command{
					Name:        "doc",
					Usage:       "Show the docs for a config key",
					Description: "Show default, documentation and whether a remount is needed",
					ArgsUsage:   "<configkey>",
					Action:      withArgCheck(needAtLeast(1), handleConfigDoc),
				},
			},
		},
		cli.Command{
			Name:     "bench",
			Category: miscGroup,
			Usage:    "Benchmark the chunk store stack",
			Subcommands: []cli.Command{
				cli.Command{
					Name:        "run",
					Usage:       "Run (a subset of) the benchmarks",
					Description: "Run benchmarks against all combinations of compression and encryption",
					Action:      handleBench,
					Flags: []cli.Flag{
						cli.StringSliceFlag{
							Name:  "bench,b",
							Usage: "Which benchmark to run (can be given multiple times)",
						},
						cli.StringFlag{
							Name:  "size,s",
							Value: "32MB",
							Usage: "How much data to push through each benchmark",
						},
						cli.StringFlag{
							Name:  "encryption,e",
							Value: "*",
							Usage: "Which encryption to use ('*' runs all)",
						},
						cli.StringFlag{
							Name:  "compression,c",
							Value: "*",
							Usage: "Which compression to use ('*' runs all)",
						},
						cli.BoolFlag{
							Name:  "json,j",
							Usage: "Print the results as JSON",
						},
					},
				},
				cli.Command{
					Name:        "ls",
					Usage:       "List all possible benchmark names",
					Description: "List all benchmark names usable with `bench run --bench`",
					Action:      handleBenchList,
				},
			},
		},
		cli.Command{
			Name:        "docs",
			Category:    miscGroup,
			Usage:       "Open the online documentation",
			Description: "Open the online documentation in the default browser",
			Action:      handleDocs,
		},
		cli.Command{
			Name:        "bug",
			Category:    miscGroup,
			Usage:       "Print a template for bug reports",
			Description: "Compile useful system info and open the issue tracker",
			Action:      handleBugReport,
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "stdout,s",
					Usage: "Print the report to stdout instead of opening the browser",
				},
			},
		},
	}

	app.Before = func(ctx *cli.Context) error {
		return setLogPath(ctx.String("log-path"))
	}

	if err := app.Run(args); err != nil {
		log.Errorf("%v", err)
		if exitErr, ok := err.(ExitCode); ok {
			return exitErr.Code
		}

		return UnknownError
	}

	return 0
}
