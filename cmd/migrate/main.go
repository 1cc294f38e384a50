// Command migrate applies the SQL files in migrations/ with goose.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"os"
	"sort"
	"strings"

	"feedfinder/pkg/config"
	"feedfinder/pkg/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

type migration func(db *sql.DB, dir string) error

func commands(name string, to int64) map[string]migration {
	return map[string]migration{
		"up":      func(db *sql.DB, dir string) error { return goose.Up(db, dir) },
		"down":    func(db *sql.DB, dir string) error { return goose.Down(db, dir) },
		"redo":    func(db *sql.DB, dir string) error { return goose.Redo(db, dir) },
		"reset":   func(db *sql.DB, dir string) error { return goose.Reset(db, dir) },
		"status":  func(db *sql.DB, dir string) error { return goose.Status(db, dir) },
		"version": func(db *sql.DB, dir string) error { return goose.Version(db, dir) },
		"up-to":   func(db *sql.DB, dir string) error { return goose.UpTo(db, dir, to) },
		"down-to": func(db *sql.DB, dir string) error { return goose.DownTo(db, dir, to) },
		"create": func(db *sql.DB, dir string) error {
			if name == "" {
				return errors.New("-name is required for create")
			}
			return goose.Create(db, dir, name, "sql")
		},
	}
}

func main() {
	var (
		dir     = flag.String("dir", "migrations", "directory with migration files")
		command = flag.String("command", "up", "goose command")
		name    = flag.String("name", "", "name of the new migration (create)")
		to      = flag.Int64("to", 0, "target version (up-to, down-to)")
	)
	flag.Parse()
	log := logger.New()

	cmds := commands(*name, *to)
	run, ok := cmds[*command]
	if !ok {
		names := make([]string, 0, len(cmds))
		for n := range cmds {
			names = append(names, n)
		}
		sort.Strings(names)
		log.Error("Unknown command %q, want one of %s", *command, strings.Join(names, ", "))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Error("Failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Error("Failed to set dialect: %v", err)
		os.Exit(1)
	}

	if err := run(db, *dir); err != nil {
		log.Error("migrate %s: %v", *command, err)
		db.Close()
		os.Exit(1)
	}
	log.Info("migrate %s done", *command)
}
