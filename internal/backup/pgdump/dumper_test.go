package pgdump

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCommand(mode string) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_MODE="+mode)
		return cmd
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	args = args[1:]

	if os.Getenv("HELPER_MODE") == "fail" {
		fmt.Fprintln(os.Stderr, "pg_dump: error: connection to server failed")
		os.Exit(1)
	}

	for _, a := range args {
		if path, ok := strings.CutPrefix(a, "--file="); ok {
			if err := os.WriteFile(path, []byte("PGDMP-archive"), 0o600); err != nil {
				os.Exit(2)
			}
		}
	}
}

func TestDumper_Dump(t *testing.T) {
	execCommand = fakeCommand("ok")
	t.Cleanup(func() { execCommand = exec.CommandContext })

	path := filepath.Join(t.TempDir(), "out.dump")
	size, err := New("", "host=localhost dbname=corebuild").Dump(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(len("PGDMP-archive")), size)
}

func TestDumper_DumpFailureCarriesStderr(t *testing.T) {
	execCommand = fakeCommand("fail")
	t.Cleanup(func() { execCommand = exec.CommandContext })

	path := filepath.Join(t.TempDir(), "out.dump")
	_, err := New("pg_dump", "host=nowhere").Dump(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection to server failed")
}

func TestNew_DefaultsBinary(t *testing.T) {
	assert.Equal(t, "pg_dump", New("", "dsn").Bin)
	assert.Equal(t, "/usr/lib/postgresql/16/bin/pg_dump", New("/usr/lib/postgresql/16/bin/pg_dump", "dsn").Bin)
}
