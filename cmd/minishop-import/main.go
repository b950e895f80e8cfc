// Command minishop-import loads a JSON export of legacy order documents into the
// orders table. Orders whose id already exists are left untouched, so reruns are safe.
package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"minishop/internal/config"
	applog "minishop/internal/log"
	"minishop/internal/repos"
	"minishop/internal/services"
)

func main() {
	cfg := config.Load()
	file := flag.String("file", "", "path to the exported orders JSON (object keyed by id, or array)")
	driver := flag.String("driver", cfg.DBDriver, "database driver: sqlite | postgres")
	dsn := flag.String("dsn", cfg.DBDSN, "database DSN")
	flag.Parse()

	logger, err := applog.New("minishop-import", cfg.LogDev)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if *file == "" {
		logger.Fatal("missing -file")
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("read export", zap.Error(err), zap.String("file", *file))
	}

	db, err := repos.OpenDB(*driver, *dsn)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	im := services.NewImporter(repos.NewOrderRepo(db), logger)
	if _, err := im.Import(context.Background(), data); err != nil {
		logger.Fatal("import", zap.Error(err))
	}
}
