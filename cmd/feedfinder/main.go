package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"feedfinder/pkg/client"
	"feedfinder/pkg/config"
	"feedfinder/pkg/logger"
	"feedfinder/pkg/shell"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to a YAML client config")
		apiBase = flag.String("api", "", "API base URL (overrides config)")
		verbose = flag.Bool("v", false, "log requests and state changes to stderr")
	)
	flag.Parse()

	cfg, err := config.LoadClient(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "feedfinder: %v\n", err)
		os.Exit(1)
	}
	if *apiBase != "" {
		cfg.APIBase = *apiBase
	}

	log := logger.Discard()
	if *verbose {
		log = logger.NewWithWriter(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.APIBase, log, client.WithTimeout(cfg.Timeout))
	r := newREPL(api, shell.New(api, log), bufio.NewScanner(os.Stdin), os.Stdout)
	r.run(ctx)
}
