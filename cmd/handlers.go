package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/sahib/config"
	"github.com/sahib/nandfs/chunkfs"
	"github.com/sahib/nandfs/cmd/pwd"
	"github.com/sahib/nandfs/defaults"
	"github.com/sahib/nandfs/util"
	"github.com/toqueteos/webbrowser"
	"github.com/urfave/cli"
)

const nandfsLogo = `
                           _  __
     _ __   __ _ _ __   __| |/ _|___
    | '_ \ / _' | '_ \ / _' | |_/ __|
    | | | | (_| | | | | (_| |  _\__ \
    |_| |_|\__,_|_| |_|\__,_|_| |___/

    Your chunk store is ready for data.
    Use 'nandfs put <file>' to fill it.

`

func handleInit(ctx *cli.Context) error {
	folder := guessRepoFolder(ctx)
	if ctx.NArg() >= 1 {
		folder = mustAbsPath(ctx.Args().First())
	}

	// Check if the folder exists...
	// doing init twice can easily break things.
	isInitialized, err := repoIsInitialized(folder)
	if err != nil {
		return err
	}

	if isInitialized {
		return fmt.Errorf("`%s` already exists and is not empty; refusing to do init", folder)
	}

	if err := os.MkdirAll(folder, 0700); err != nil {
		return err
	}

	unlock, err := lockRepo(folder)
	if err != nil {
		return ExitCode{UnknownError, err.Error()}
	}

	defer unlock()

	cfg, err := config.Open(nil, defaults.Defaults, config.StrictnessPanic)
	if err != nil {
		return err
	}

	if backend := ctx.String("backend"); backend != "" {
		if err := cfg.SetString("store.backend", backend); err != nil {
			return err
		}
	}

	if compression := ctx.String("compression"); compression != "" {
		if err := cfg.SetString("store.compression", compression); err != nil {
			return err
		}
	}

	password := ""
	if ctx.Bool("encrypt") {
		salt := make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return err
		}

		if err := cfg.SetBool("store.encryption.enabled", true); err != nil {
			return err
		}

		if err := cfg.SetString("store.encryption.salt", hex.EncodeToString(salt)); err != nil {
			return err
		}

		if password = readPasswordFromArgs(ctx); password == "" {
			pwdBytes, err := pwd.PromptNewPassword(20)
			if err != nil {
				return ExitCode{BadPassword, fmt.Sprintf("failed to read password: %v", err)}
			}

			password = string(pwdBytes)
		}
	}

	if err := saveRepoConfig(folder, cfg); err != nil {
		return err
	}

	// Mount once, so a botched setup fails here and not at first use.
	// For the badger backend this also creates the store directory.
	dev, err := mountDevice(folder, cfg, password)
	if err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("init failed: %v", err)}
	}

	if err := dev.Unmount(); err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("init failed: %v", err)}
	}

	fmt.Printf("%s\n", nandfsLogo)
	fmt.Printf("Initialized repository at %s\n", color.GreenString(folder))
	return nil
}

func printConfigDocEntry(cfg *config.Config, key string) {
	entry := cfg.GetDefault(key)

	val := fmt.Sprintf("%v", cfg.Get(key))
	if val == "" {
		val = color.YellowString("(empty)")
	}

	defaultVal := fmt.Sprintf("%v", entry.Default)
	defaultMarker := ""
	if val == defaultVal {
		defaultMarker = color.CyanString("(default)")
	}

	fmt.Printf("%s: %v %s\n", color.GreenString(key), val, defaultMarker)

	if defaultVal == "" {
		defaultVal = color.YellowString("(empty)")
	}

	fmt.Printf("  Default:       %v\n", defaultVal)
	fmt.Printf("  Documentation: %v\n", entry.Docs)
	fmt.Printf("  Needs remount: %v\n", yesify(entry.NeedsRestart))
}

func handleConfigList(ctx *cli.Context) error {
	folder := guessRepoFolder(ctx)
	cfg, err := openRepoConfig(folder)
	if err != nil {
		return ExitCode{UnknownError, err.Error()}
	}

	for _, key := range cfg.Keys() {
		printConfigDocEntry(cfg, key)
	}

	return nil
}

func handleConfigGet(ctx *cli.Context) error {
	folder := guessRepoFolder(ctx)
	cfg, err := openRepoConfig(folder)
	if err != nil {
		return ExitCode{UnknownError, err.Error()}
	}

	key := ctx.Args().Get(0)
	if !cfg.IsValidKey(key) {
		return ExitCode{UnknownError, fmt.Sprintf("no such config key: %s", key)}
	}

	fmt.Printf("%v\n", cfg.Get(key))
	return nil
}

func handleConfigDoc(ctx *cli.Context) error {
	folder := guessRepoFolder(ctx)
	cfg, err := openRepoConfig(folder)
	if err != nil {
		return ExitCode{UnknownError, err.Error()}
	}

	key := ctx.Args().Get(0)
	if !cfg.IsValidKey(key) {
		return ExitCode{UnknownError, fmt.Sprintf("no such config key: %s", key)}
	}

	printConfigDocEntry(cfg, key)
	return nil
}

func handleConfigSet(ctx *cli.Context) error {
	folder := guessRepoFolder(ctx)
	cfg, err := openRepoConfig(folder)
	if err != nil {
		return ExitCode{UnknownError, err.Error()}
	}

	key := ctx.Args().Get(0)
	if !cfg.IsValidKey(key) {
		return ExitCode{UnknownError, fmt.Sprintf("no such config key: %s", key)}
	}

	val, err := cfg.Cast(key, ctx.Args().Get(1))
	if err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("config set: %v", err)}
	}

	if err := cfg.Set(key, val); err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("config set: %v", err)}
	}

	if err := saveRepoConfig(folder, cfg); err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("config set: %v", err)}
	}

	if cfg.GetDefault(key).NeedsRestart {
		fmt.Println("NOTE: This option only takes effect on the next mount.")
	}

	return nil
}

func handleStats(ctx *cli.Context, dev *chunkfs.Device) error {
	stats := dev.Stats()

	row := func(name string, value interface{}) {
		fmt.Printf("%12s: %v\n", name, value)
	}

	row("Objects", stats.Objects)
	row("Chunk size", humanize.Bytes(uint64(dev.ChunkSize())))
	row("Cache slots", stats.CacheSlots)
	row("Dirty slots", stats.DirtySlots)
	row("Cache hits", stats.CacheHits)
	return nil
}

func handleSync(ctx *cli.Context, dev *chunkfs.Device) error {
	if err := dev.Sync(); err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("sync: %v", err)}
	}

	return nil
}

func handleDocs(ctx *cli.Context) error {
	return webbrowser.Open("https://godoc.org/github.com/sahib/nandfs")
}

func handleExport(ctx *cli.Context) error {
	folder := guessRepoFolder(ctx)

	isInitialized, err := repoIsInitialized(folder)
	if err != nil {
		return err
	}

	if !isInitialized {
		return fmt.Errorf("`%s` does not look like an initialized repository", folder)
	}

	// Hold the lock over the whole archiving step so no other process
	// writes to the store while we read it.
	unlock, err := lockRepo(folder)
	if err != nil {
		return ExitCode{UnknownError, err.Error()}
	}

	defer unlock()

	archivePath := mustAbsPath(ctx.Args().First())
	fd, err := os.OpenFile(archivePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	archiveName := fmt.Sprintf("nandfs repository archive of %s", folder)
	if err := util.Tar(folder, archiveName, fd); err != nil {
		fd.Close()
		return ExitCode{UnknownError, fmt.Sprintf("export: %v", err)}
	}

	if err := fd.Close(); err != nil {
		return err
	}

	fmt.Printf("Exported repository to %s\n", color.GreenString(archivePath))
	return nil
}

func handleImport(ctx *cli.Context) error {
	archivePath := mustAbsPath(ctx.Args().First())

	folder := guessRepoFolder(ctx)
	if ctx.NArg() >= 2 {
		folder = mustAbsPath(ctx.Args().Get(1))
	}

	isInitialized, err := repoIsInitialized(folder)
	if err != nil {
		return err
	}

	if isInitialized {
		return fmt.Errorf("`%s` already exists and is not empty; refusing to import", folder)
	}

	// Untar insists on creating the folder itself:
	if err := os.Remove(folder); err != nil && !os.IsNotExist(err) {
		return err
	}

	fd, err := os.Open(archivePath)
	if err != nil {
		return err
	}

	defer fd.Close()

	if err := util.Untar(fd, folder); err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("import: %v", err)}
	}

	// The archive carries the lock file of the exporting process;
	// the fresh copy must not start out locked.
	if err := os.Remove(filepath.Join(folder, "lock")); err != nil && !os.IsNotExist(err) {
		return err
	}

	fmt.Printf("Imported repository to %s\n", color.GreenString(folder))
	return nil
}
