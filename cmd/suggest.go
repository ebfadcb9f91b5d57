package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli"
	"github.com/xrash/smetrics"
)

// Commands with at least this similarity are offered as "did you mean".
const suggestThreshold = 0.6

// Aliases users coming from other tools tend to try first:
var staticSuggestions = map[string]string{
	"write":  "put",
	"read":   "cat",
	"delete": "rm",
	"list":   "ls",
	"flush":  "sync",
}

type suggestion struct {
	name  string
	score float64
}

// levenshteinRatio rates the similarity of two strings between 0 and 1,
// based on the Wagner-Fischer edit distance with substitutions counted
// twice.
func levenshteinRatio(s, t string) float64 {
	lensum := float64(len(s) + len(t))
	if lensum == 0 {
		return 1.0
	}

	dist := float64(smetrics.WagnerFischer(s, t, 1, 1, 2))
	return (lensum - dist) / lensum
}

func findSimilarCommands(cmdName string, cmds []cli.Command) []suggestion {
	similars := []suggestion{}

	for _, cmd := range cmds {
		best := 0.0
		for _, candidate := range append([]string{cmd.Name}, cmd.Aliases...) {
			if score := levenshteinRatio(cmdName, candidate); score > best {
				best = score
			}
		}

		if best >= suggestThreshold {
			similars = append(similars, suggestion{
				name:  cmd.Name,
				score: best,
			})
		}
	}

	// Static suggestions do not need to be close in edit distance:
	if ourName, ok := staticSuggestions[cmdName]; ok {
		similars = append(similars, suggestion{name: ourName})
	}

	// Best match first.
	sort.Slice(similars, func(i, j int) bool {
		return similars[i].score > similars[j].score
	})

	return similars
}

// resolveCommandPath walks the typed arguments as deep as they still
// name existing commands. It returns the path of valid names (empty if
// already the first argument was wrong) and the commands the failing
// argument should have come from.
func resolveCommandPath(ctx *cli.Context) ([]string, []cli.Command) {
	for ctx.Parent() != nil {
		ctx = ctx.Parent()
	}

	path := []string{}
	candidates := ctx.App.Commands

	args := ctx.Args()
	if len(args) == 0 {
		return path, candidates
	}

	// The final argument is the one that failed to resolve, everything
	// before it has to match an existing (sub)command.
	for _, arg := range args[:len(args)-1] {
		var next *cli.Command
		for i := range candidates {
			if candidates[i].HasName(arg) {
				next = &candidates[i]
				break
			}
		}

		if next == nil {
			break
		}

		path = append(path, arg)
		candidates = next.Subcommands
	}

	return path, candidates
}

// commandNotFound is hooked into the cli app; it prints suggestions
// instead of the default "command not found" one-liner.
func commandNotFound(ctx *cli.Context, cmdName string) {
	cmdPath, candidates := resolveCommandPath(ctx)

	badCmd := color.RedString(cmdName)
	if len(cmdPath) == 0 {
		fmt.Printf("`%s` is not a valid command. ", badCmd)
	} else {
		parent := color.YellowString(strings.Join(cmdPath, " "))
		fmt.Printf("`%s` is not a valid subcommand of `%s`. ", badCmd, parent)
	}

	similars := findSimilarCommands(cmdName, candidates)

	switch len(similars) {
	case 0:
		fmt.Printf("\n")
	case 1:
		fmt.Printf("Did you maybe mean `%s`?\n", color.GreenString(similars[0].name))
	default:
		fmt.Println("\n\nDid you maybe mean one of those?")
		for _, similar := range similars {
			fmt.Printf("  * %s\n", color.GreenString(similar.name))
		}
	}
}
