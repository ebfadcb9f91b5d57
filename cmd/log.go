package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"
)

// logVerbose prints chatter that is only interesting when the user
// asked for it with --verbose. The logrus side is for the library
// layers; this here is for the command line plumbing itself.
func logVerbose(ctx *cli.Context, format string, args ...interface{}) {
	if !ctx.GlobalBool("verbose") {
		return
	}

	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintln(os.Stderr, "--", msg)
}
