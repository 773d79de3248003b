package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"

	"github.com/syssam/recordgen/cmd/recordgen/commands"
	"github.com/syssam/recordgen/internal/logger"

	// database/sql drivers for --from-database.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := commands.NewRootCmd().ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		pterm.Error.Println(commands.Describe(err))
		os.Exit(1)
	}
}
