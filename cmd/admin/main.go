package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/enraizado/internal/admin"
	"github.com/dmitrijs2005/enraizado/internal/flagx"
	"github.com/dmitrijs2005/enraizado/internal/server"
	"github.com/dmitrijs2005/enraizado/internal/server/config"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/repomanager"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	svc := server.NewServices(db, rm, cfg, server.NewMailSender(cfg))

	app := admin.NewApp(svc.Users, svc.Activations, func(ctx context.Context) error {
		return rm.RunMigrations(ctx, db)
	}, os.Stdout)

	args := flagx.Positional(os.Args[1:], config.ValueFlags())
	if err := app.Run(ctx, args); err != nil {
		if !errors.Is(err, admin.ErrUsage) {
			fmt.Fprintln(os.Stderr, admin.Describe(err))
		}
		db.Close()
		os.Exit(1)
	}
}
