package cmd

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/sahib/nandfs/bench"
	"github.com/sahib/nandfs/version"
	"github.com/toqueteos/webbrowser"
	"github.com/urfave/cli"
)

const issueTrackerURL = "https://github.com/sahib/nandfs/issues"

// printError simply prints a nicely formatted error to stderr.
func printError(msg string) {
	fmt.Fprintln(os.Stderr, color.RedString("*** ")+msg)
}

// unameOutput returns the kernel description or an empty string.
// Everything in `nandfs bug` is best effort, so no hard errors here.
func unameOutput() string {
	out, err := exec.Command("uname", "-s", "-v", "-m").Output()
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(out))
}

// buildBugReport assembles the report template together with all
// system details we can gather without touching the repository.
func buildBugReport() string {
	buf := &bytes.Buffer{}
	fmt.Fprintln(buf, `Please answer those questions before submitting the issue.
Anything else you consider helpful is welcome too. Thanks!

### What did you do?

### What did you expect to happen?

### What happened instead?

### Does a development build show the same behaviour?

### Is there already an issue describing this bug?

### System details:`)

	fmt.Fprintf(
		buf,
		"nandfs version: ``%s [build: %s]``\n",
		version.String(),
		version.BuildTime,
	)
	fmt.Fprintf(buf, "go version:     ``%s %s/%s``\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	if uname := unameOutput(); uname != "" {
		fmt.Fprintf(buf, "kernel:         ``%s``\n", uname)
	}

	stats := bench.FetchStats()
	fmt.Fprintf(buf, "cpu:            ``%s``\n", stats.CPUBrandName)
	fmt.Fprintf(
		buf,
		"cores:          ``%d logical / %d physical``\n",
		stats.LogicalCores,
		stats.PhysicalCores,
	)

	return buf.String()
}

// handleBugReport compiles a report of useful info for a bug report.
func handleBugReport(ctx *cli.Context) error {
	report := buildBugReport()
	if ctx.Bool("stdout") {
		fmt.Println(report)
		return nil
	}

	// Try to pre-fill the issue tracker form for convenience:
	urlVal := url.Values{}
	urlVal.Set("body", report)

	if err := webbrowser.Open(issueTrackerURL + "/new?" + urlVal.Encode()); err != nil {
		printError("I failed to open the issue tracker in your browser.")
		printError("Please paste the text below manually at this URL:")
		printError(issueTrackerURL)
		fmt.Println(report)
	}

	return nil
}
