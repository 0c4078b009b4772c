package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)

	rootCmd.SetArgs([]string{"--help"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "--interval")

	rootCmd.SetArgs([]string{"unexpected"})
	assert.Error(t, rootCmd.Execute())
}
