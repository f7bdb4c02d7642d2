package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/registro/apps/shared"
	"github.com/trezcool/registro/core"
	blobsvc "github.com/trezcool/registro/services/blob"
	logsvc "github.com/trezcool/registro/services/logger"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	// set up DB; migrations are run explicitly with `migrate`
	db, err := shared.OpenDatabase(conf, false /* migrate */, std)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	archiveSvc, err := shared.NewArchiveService(shared.ServiceDeps{
		Conf:    conf,
		Logger:  logger,
		MailLog: log.New(os.Stdout, "MAIL : ", log.LstdFlags),
		Store:   db.Store,
	})
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up archive service: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:         db,
		archiveSvc: archiveSvc,
		blobStore: func(ctx context.Context) (core.BlobStore, error) {
			return blobsvc.New(ctx, conf)
		},
		out: os.Stdout,
	}
	err = cli.run(os.Args)

	if cErr := db.Close(); cErr != nil {
		std.Printf("closing database: %v", cErr)
	}
	logger.Close()
	if err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
