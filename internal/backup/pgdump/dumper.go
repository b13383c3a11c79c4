package pgdump

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var execCommand = exec.CommandContext

// Dumper shells out to pg_dump.
type Dumper struct {
	Bin string
	DSN string
}

func New(bin, dsn string) *Dumper {
	if bin == "" {
		bin = "pg_dump"
	}
	return &Dumper{Bin: bin, DSN: dsn}
}

// Dump writes a custom-format archive to path and returns its size.
func (d *Dumper) Dump(ctx context.Context, path string) (int64, error) {
	var stderr bytes.Buffer

	cmd := execCommand(ctx, d.Bin, "--format=custom", "--no-owner", "--file="+path, "--dbname="+d.DSN)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return 0, fmt.Errorf("pg_dump: %w", err)
		}
		return 0, fmt.Errorf("pg_dump: %w: %s", err, msg)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat dump: %w", err)
	}
	return info.Size(), nil
}
