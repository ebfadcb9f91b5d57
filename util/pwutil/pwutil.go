// Package pwutil reads repository passwords from a user-defined
// helper command, e.g. a call to pass or a keyring tool.
package pwutil

import (
	"context"
	"os/exec"
	"os/user"
	"strings"
	"time"

	logutil "github.com/sahib/nandfs/util/log"
	log "github.com/sirupsen/logrus"
)

// HelperTimeout is how long a password helper may take before we give
// up on it. Helpers may block on agents or hardware tokens, so this is
// generous.
const HelperTimeout = time.Minute

// ReadPasswordFromHelper runs `helperCommand` through the shell and
// returns its trimmed stdout as the password. The helper sees the
// repository path as NANDFS_PATH; its stderr ends up in our log.
func ReadPasswordFromHelper(basePath, helperCommand string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), HelperTimeout)
	defer cancel()

	currentUser, err := user.Current()
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", helperCommand) // #nosec
	cmd.Env = append(cmd.Env, "NANDFS_PATH="+basePath)
	cmd.Env = append(cmd.Env, "HOME="+currentUser.HomeDir)
	cmd.Stderr = &logutil.Writer{Level: log.WarnLevel}

	data, err := cmd.Output()
	if err != nil {
		log.Warningf("failed to execute password helper: %v", err)
		return "", err
	}

	return strings.Trim(string(data), "\n"), nil
}
