package main

import (
	"os"

	"github.com/sahib/nandfs/cmd"
)

func main() {
	os.Exit(cmd.RunCmdline(os.Args))
}
