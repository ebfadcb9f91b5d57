package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/fatih/color"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/sahib/config"
	"github.com/sahib/nandfs/chunkfs"
	"github.com/sahib/nandfs/chunkfs/chunkio"
	"github.com/sahib/nandfs/cmd/pwd"
	"github.com/sahib/nandfs/defaults"
	"github.com/sahib/nandfs/util"
	"github.com/sahib/nandfs/util/filelock"
	"github.com/sahib/nandfs/util/pwutil"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// ExitCode is an error that maps the error interface to a specific error
// message and a unix exit code
type ExitCode struct {
	Code    int
	Message string
}

func (err ExitCode) Error() string {
	return err.Message
}

func mustAbsPath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		fmt.Printf("Failed to get absolute repo path: %v", err)
		os.Exit(1)
	}

	return absPath
}

func yesify(val bool) string {
	if val {
		return color.GreenString("yes")
	}

	return color.RedString("no")
}

func checkmarkify(val bool) string {
	if val {
		return color.GreenString("✔")
	}

	return ""
}

// guessRepoFolder tries to find the repository path
// by using a number of sources.
// This helper may call exit when it fails to get the path.
func guessRepoFolder(ctx *cli.Context) string {
	if argPath := ctx.GlobalString("path"); argPath != "" {
		return mustAbsPath(argPath)
	}

	dir, err := homedir.Expand("~/.nandfs")
	if err != nil {
		fmt.Printf("failed to expand home dir: %v; aborting.", err)
		os.Exit(1)
	}

	return mustAbsPath(dir)
}

func repoIsInitialized(dir string) (bool, error) {
	fd, err := os.Open(dir) // #nosec
	if err != nil && os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	names, err := fd.Readdirnames(-1)
	if err != nil {
		return false, err
	}

	return len(names) >= 1, nil
}

func openRepoConfig(folder string) (*config.Config, error) {
	configPath := filepath.Join(folder, "config.yml")
	cfg, err := defaults.OpenMigratedConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read the config of the repository.\n")
		fmt.Fprintf(os.Stderr, "Please specify either --path <folder> or set NANDFS_PATH so we\n")
		fmt.Fprintf(os.Stderr, "know where the repository is. Maybe you still need to run `init`?\n\n")
		return nil, fmt.Errorf("could not find config: %v", err)
	}

	return cfg, nil
}

func saveRepoConfig(folder string, cfg *config.Config) error {
	configPath := filepath.Join(folder, "config.yml")
	fd, err := os.OpenFile(configPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	defer util.Closer(fd)

	return cfg.Save(config.NewYamlEncoder(fd))
}

func readPasswordFromArgs(ctx *cli.Context) string {
	if ctx.GlobalBool("no-password") {
		return "no-password"
	}

	for curr := ctx; curr != nil; curr = curr.Parent() {
		if password := curr.String("password"); password != "" {
			return password
		}
	}

	return ""
}

func readPassword(ctx *cli.Context, folder string, cfg *config.Config) (string, error) {
	if password := readPasswordFromArgs(ctx); password != "" {
		return password, nil
	}

	if pwHelper := cfg.String("repo.password_command"); pwHelper != "" {
		password, err := pwutil.ReadPasswordFromHelper(folder, pwHelper)
		if err == nil {
			return password, nil
		}

		logVerbose(ctx, "failed to read password from helper: %v", err)
	}

	// Read the password from stdin:
	return pwd.PromptPassword()
}

// lockRepo guards the repository folder against a second nandfs process.
// The badger backend would notice the double use too, but only after it
// partially opened the store; failing early keeps the message clear and
// also covers the memory backend.
func lockRepo(folder string) (func(), error) {
	lockPath := filepath.Join(folder, "lock")
	if err := filelock.TryAcquire(lockPath); err != nil {
		return nil, fmt.Errorf("repository %s is used by another process: %v", folder, err)
	}

	return func() {
		if err := filelock.Release(lockPath); err != nil {
			log.Warningf("failed to release repository lock: %v", err)
		}
	}, nil
}

// openStore builds the chunk store stack the way the config describes it:
// a raw backend, wrapped in compression, optionally wrapped in encryption.
// `password` is only used when encryption is enabled in the config.
func openStore(folder string, cfg *config.Config, password string) (chunkio.Store, error) {
	var store chunkio.Store
	var err error

	switch backend := cfg.String("store.backend"); backend {
	case "memory":
		store = chunkio.NewMemStore(
			int(cfg.Int("store.max_chunks")),
			int(cfg.Int("store.reserve_chunks")),
		)
	case "badger":
		path := cfg.String("store.path")
		if path == "" {
			path = filepath.Join(folder, "store")
		}

		store, err = chunkio.NewBadgerStore(path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("no such store backend: %s", backend)
	}

	algo, err := chunkio.AlgoFromString(cfg.String("store.compression"))
	if err != nil {
		util.Closer(store)
		return nil, err
	}

	store, err = chunkio.NewCompressedStore(store, algo)
	if err != nil {
		util.Closer(store)
		return nil, err
	}

	if cfg.Bool("store.encryption.enabled") {
		salt, err := hex.DecodeString(cfg.String("store.encryption.salt"))
		if err != nil {
			util.Closer(store)
			return nil, fmt.Errorf("bad encryption salt in config: %v", err)
		}

		key := util.DeriveKey([]byte(password), salt, chunkio.KeySize)
		store, err = chunkio.NewEncryptedStore(store, key)
		if err != nil {
			util.Closer(store)
			return nil, err
		}
	}

	return store, nil
}

func mountDevice(folder string, cfg *config.Config, password string) (*chunkfs.Device, error) {
	store, err := openStore(folder, cfg, password)
	if err != nil {
		return nil, err
	}

	dev, err := chunkfs.Mount(store, chunkfs.Options{
		MaxSlots:  int(cfg.Int("cache.max_slots")),
		ChunkSize: int(cfg.Int("cache.chunk_size")),
	})

	if err != nil {
		util.Closer(store)
		return nil, err
	}

	return dev, nil
}

type cmdHandlerWithDevice func(ctx *cli.Context, dev *chunkfs.Device) error

// withDevice opens the repository, mounts the device, runs the handler and
// unmounts again. Unmounting flushes the cache, so its errors matter as
// much as the handler's.
func withDevice(handler cmdHandlerWithDevice) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		folder := guessRepoFolder(ctx)
		cfg, err := openRepoConfig(folder)
		if err != nil {
			return ExitCode{UnknownError, err.Error()}
		}

		unlock, err := lockRepo(folder)
		if err != nil {
			return ExitCode{UnknownError, err.Error()}
		}

		defer unlock()

		password := ""
		if cfg.Bool("store.encryption.enabled") {
			password, err = readPassword(ctx, folder, cfg)
			if err != nil {
				return ExitCode{BadPassword, fmt.Sprintf("failed to read password: %v", err)}
			}
		}

		logVerbose(
			ctx,
			"mounting a %s store at '%s'",
			cfg.String("store.backend"),
			folder,
		)

		dev, err := mountDevice(folder, cfg, password)
		if err != nil {
			return ExitCode{UnknownError, fmt.Sprintf("failed to mount: %v", err)}
		}

		handlerErr := handler(ctx, dev)
		if err := dev.Unmount(); err != nil {
			log.Warningf("unmount failed; recent writes might not be stored: %v", err)
			if handlerErr == nil {
				handlerErr = ExitCode{UnknownError, fmt.Sprintf("failed to unmount: %v", err)}
			}
		}

		return handlerErr
	}
}

type checkFunc func(ctx *cli.Context) int

func withArgCheck(checker checkFunc, handler cli.ActionFunc) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		if checker(ctx) != Success {
			os.Exit(BadArgs)
		}

		return handler(ctx)
	}
}

func needAtLeast(min int) checkFunc {
	return func(ctx *cli.Context) int {
		if ctx.NArg() < min {
			if min == 1 {
				log.Warningf("Need at least %d argument.", min)
			} else {
				log.Warningf("Need at least %d arguments.", min)
			}

			if err := cli.ShowCommandHelp(ctx, ctx.Command.Name); err != nil {
				log.Warningf("Failed to display --help: %v", err)
			}

			return BadArgs
		}

		return Success
	}
}

func parseObjectID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("`%s` is not a valid object id", s)
	}

	return id, nil
}

func readFormatTemplate(ctx *cli.Context) (*template.Template, error) {
	if ctx.IsSet("format") {
		source := ctx.String("format") + "\n"
		tmpl, err := template.New("format").Parse(source)

		if err != nil {
			return nil, err
		}

		return tmpl, nil
	}

	return nil, nil
}
