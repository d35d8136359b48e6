// voxe-init initializes a run history database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"zombiezen.com/go/sqlite"

	"github.com/zephyrtronium/voxe/history/sqlhistory"
)

var app = cli.Command{
	Name:      "voxe-init",
	Usage:     "Initialize an SQLite run history database",
	ArgsUsage: "<source>",
	Action:    initDB,
}

func main() {
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initDB(ctx context.Context, cmd *cli.Command) error {
	source := cmd.Args().First()
	if source == "" {
		return fmt.Errorf("missing database source")
	}
	conn, err := sqlite.OpenConn(source, sqlite.OpenReadWrite|sqlite.OpenCreate|sqlite.OpenURI)
	if err != nil {
		return fmt.Errorf("couldn't open %s: %w", source, err)
	}
	defer conn.Close()
	if err := sqlhistory.Init(ctx, conn); err != nil {
		return err
	}
	slog.InfoContext(ctx, "initialized run history", slog.String("source", source))
	return nil
}
