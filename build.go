// +build mage

package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var Aliases = map[string]interface{}{
	"b": Build.Binary,
	"t": Build.Test,
	"l": Dev.Lint,
}

/////////////////////
// UTILITY HELPERS //
/////////////////////

const versionFile = ".version"

func speak(format string, args ...interface{}) {
	if mg.Verbose() {
		fmt.Printf("-- "+format+"\n", args...)
	}
}

func readVersion() (semver.Version, error) {
	data, err := ioutil.ReadFile(versionFile)
	if err != nil {
		return semver.Version{}, fmt.Errorf("failed to read %s: %v", versionFile, err)
	}

	text := strings.TrimSpace(strings.TrimPrefix(string(data), "v"))
	vers, err := semver.Parse(text)
	if err != nil {
		return semver.Version{}, fmt.Errorf("failed to parse %s: %v", versionFile, err)
	}

	return vers, nil
}

func writeVersion(vers semver.Version) error {
	return ioutil.WriteFile(versionFile, []byte("v"+vers.String()+"\n"), 0644)
}

func gitRev() string {
	rev, err := sh.Output("git", "rev-parse", "HEAD")
	if err != nil {
		speak("could not get git rev: %v", err)
		return ""
	}

	return rev
}

func binaryOutput() string {
	if path := os.Getenv("NANDFS_BINARY_PATH"); path != "" {
		speak("using binary path from NANDFS_BINARY_PATH: %s", path)
		return path
	}

	speak("using ${GOBIN}/nandfs as binary output location")
	return filepath.Join(os.Getenv("GOBIN"), "nandfs")
}

////////////////////
// ACTUAL TARGETS //
////////////////////

var Default = Build.Binary

type Build mg.Namespace

// Binary builds the nandfs binary with the version info stamped in.
func (Build) Binary() error {
	vers, err := readVersion()
	if err != nil {
		return err
	}

	releaseType := ""
	if len(vers.Pre) > 0 {
		releaseType = vers.Pre[0].String()
	}

	imp := "github.com/sahib/nandfs/version"
	stamps := [][2]string{
		{"Major", fmt.Sprintf("%d", vers.Major)},
		{"Minor", fmt.Sprintf("%d", vers.Minor)},
		{"Patch", fmt.Sprintf("%d", vers.Patch)},
		{"ReleaseType", releaseType},
		{"BuildTime", time.Now().Format(time.RFC3339)},
		{"GitRev", gitRev()},
	}

	ldflags := []string{}
	for _, stamp := range stamps {
		ldflags = append(ldflags, "-X", fmt.Sprintf("%s.%s=%s", imp, stamp[0], stamp[1]))
	}

	if os.Getenv("NANDFS_SMALL_BINARY") != "" {
		ldflags = append(ldflags, "-s", "-w")
	}

	return sh.Run(
		"go", "build",
		"-ldflags", strings.Join(ldflags, " "),
		"-o", binaryOutput(),
	)
}

func (Build) Test() error {
	return sh.RunV("go", "test", "./...")
}

// Bump rewrites the .version file for a new release.
type Bump mg.Namespace

func bump(level string) error {
	vers, err := readVersion()
	if err != nil {
		return err
	}

	switch level {
	case "major":
		vers.Major++
		vers.Minor = 0
		vers.Patch = 0
	case "minor":
		vers.Minor++
		vers.Patch = 0
	case "patch":
		vers.Patch++
	}

	// A bump always starts a fresh final version:
	vers.Pre = nil
	vers.Build = nil

	speak("new version is v%s", vers)
	return writeVersion(vers)
}

// Major starts a new major release cycle.
func (Bump) Major() error { return bump("major") }

// Minor starts a new minor release cycle.
func (Bump) Minor() error { return bump("minor") }

// Patch records a released fix.
func (Bump) Patch() error { return bump("patch") }

// Development tools that are not relevant to the user's building process:
type Dev mg.Namespace

func (Dev) Lint() error {
	findCmd := "find -iname '*.go' -type f ! -path '*vendor*' ! -iname 'build.go'"

	linters := []string{
		fmt.Sprintf("%s -exec gofmt -s -w {} \\;", findCmd),
		fmt.Sprintf("%s -exec go fix {} \\;", findCmd),
		fmt.Sprintf("%s -exec golint {} \\;", findCmd),
		fmt.Sprintf("%s -exec misspell {} \\;", findCmd),
		fmt.Sprintf("%s -exec gocyclo -over 20 {} \\; | sort -n", findCmd),
	}

	for _, linter := range linters {
		sh.RunV("sh", "-c", linter)
	}

	return nil
}

func (Dev) Cloc() error {
	cmd := "cloc $(find -iname '*.go' -a ! -path '*vendor*' | sort | uniq)"
	return sh.RunV("sh", "-c", cmd)
}
