package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/webappsync/internal/client/app"
	"github.com/dmitrijs2005/webappsync/internal/client/cli"
	"github.com/dmitrijs2005/webappsync/internal/client/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer core.Close()

	if err := cli.NewApp(core).Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
