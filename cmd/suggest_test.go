package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func TestLevenshteinRatio(t *testing.T) {
	require.Equal(t, 1.0, levenshteinRatio("", ""))
	require.Equal(t, 1.0, levenshteinRatio("put", "put"))
	require.True(t, levenshteinRatio("put", "put") > levenshteinRatio("put", "pub"))
	require.True(t, levenshteinRatio("cat", "truncate") < 0.6)
}

func TestFindSimilarCommands(t *testing.T) {
	cmds := []cli.Command{
		{Name: "put"},
		{Name: "cat"},
		{Name: "truncate", Aliases: []string{"trunc"}},
	}

	names := func(similars []suggestion) []string {
		found := []string{}
		for _, similar := range similars {
			found = append(found, similar.name)
		}

		return found
	}

	require.Contains(t, names(findSimilarCommands("pu", cmds)), "put")
	require.Contains(t, names(findSimilarCommands("trunc", cmds)), "truncate")

	// Static suggestions do not need to be close in edit distance:
	require.Contains(t, names(findSimilarCommands("write", cmds)), "put")
	require.Empty(t, findSimilarCommands("xyzzy", cmds))
}
