package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseObjectID(t *testing.T) {
	id, err := parseObjectID("17")
	require.Nil(t, err)
	require.Equal(t, uint64(17), id)

	_, err = parseObjectID("gondor")
	require.NotNil(t, err)

	_, err = parseObjectID("-3")
	require.NotNil(t, err)

	_, err = parseObjectID("")
	require.NotNil(t, err)
}

func TestFormatGroup(t *testing.T) {
	require.Equal(t, "OBJECT COMMANDS", formatGroup("object"))
}
