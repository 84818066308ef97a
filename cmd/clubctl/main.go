package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/dmitrijs2005/clubhouse/internal/clubctl"
	"github.com/dmitrijs2005/clubhouse/internal/server"
	"github.com/dmitrijs2005/clubhouse/internal/server/config"
	"github.com/dmitrijs2005/clubhouse/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	db, rm, err := server.OpenDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cli := clubctl.New(services.NewUserService(db, rm, cfg), services.NewInviteService(db, rm), os.Stdout)
	err = cli.Run(ctx, os.Args[1:])
	_ = db.Close()

	switch {
	case errors.Is(err, clubctl.ErrUsage):
		os.Exit(2)
	case err != nil:
		log.Fatalf("%v", err)
	}

}
