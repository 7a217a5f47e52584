package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, ExitOK, ExitCode(nil))
	require.Equal(t, ExitError, ExitCode(errors.New("boom")))
	require.Equal(t, ExitUsage, ExitCode(usageError{errors.New("bad flag")}))
	// Wrapped usage errors still map to the usage code.
	require.Equal(t, ExitUsage, ExitCode(fmt.Errorf("run: %w", usageError{errors.New("bad config")})))
}

func TestCommandsRegistered(t *testing.T) {
	t.Parallel()

	want := map[string]bool{
		"generate": false, "etl": false, "enrich": false,
		"simulate": false, "recommend": false, "audit": false, "all": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		require.True(t, found, "subcommand %s not registered", name)
	}
}
