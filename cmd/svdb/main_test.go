package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	return root.Execute()
}

func TestRunBareInvocationIsUsage(t *testing.T) {
	err := executeRoot(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUsage))
}

func TestUnknownCommandIsUsage(t *testing.T) {
	err := executeRoot(t, "bogus")
	require.Error(t, err)
	assert.True(t, isUsageError(err))
}

func TestUnknownFlagIsUsage(t *testing.T) {
	err := executeRoot(t, "--bogus")
	require.Error(t, err)
	assert.True(t, isUsageError(err))
}

func TestSubcommandArgCountIsUsage(t *testing.T) {
	err := executeRoot(t, "config", "set", "db")
	require.Error(t, err)
	assert.True(t, isUsageError(err))
}

func TestIsUsageError(t *testing.T) {
	assert.True(t, isUsageError(errors.New(`unknown command "bogus" for "svdb"`)))
	assert.True(t, isUsageError(errors.New("unknown flag: --bogus")))
	assert.True(t, isUsageError(errors.New("unknown shorthand flag: 'x' in -x")))
	assert.True(t, isUsageError(errors.New("accepts 2 arg(s), received 1")))
	assert.True(t, isUsageError(errors.New(`invalid argument "ten" for "--top" flag`)))

	assert.False(t, isUsageError(errors.New("file not found: input.tsv")))
	assert.False(t, isUsageError(errors.New("open duckdb: io error")))
}
