package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	altsrc "github.com/urfave/cli-altsrc/v3"
	toml "github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/tarmac-project/crossdb"
	"github.com/tarmac-project/crossdb/engine"
	"github.com/tarmac-project/crossdb/internal/config"
	"github.com/tarmac-project/crossdb/internal/export"
	"github.com/tarmac-project/crossdb/internal/logger"
	"github.com/tarmac-project/crossdb/xdb"
)

var errMissingSQL = errors.New("missing SQL argument")

// Opener returns an engine for the shared library at path together with a
// function releasing it.
type Opener func(library string) (engine.Engine, func() error, error)

func nativeOpener(library string) (engine.Engine, func() error, error) {
	if library == "" {
		library = xdb.DefaultLibrary()
	}
	lib, err := xdb.Load(library)
	if err != nil {
		return nil, nil, err
	}
	return lib, lib.Unload, nil
}

type app struct {
	open   Opener
	out    io.Writer
	errOut io.Writer

	configPath string
	cfg        *config.Config
	log        *slog.Logger
	logCloser  io.Closer
}

func newApp(open Opener, out, errOut io.Writer) *cli.Command {
	a := &app{open: open, out: out, errOut: errOut}

	return &cli.Command{
		Name:      "crossdb",
		Usage:     "run SQL against a CrossDB database",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "TOML configuration file",
				Destination: &a.configPath,
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "database path, " + crossdb.MemoryPath + " for an in-memory database",
				Sources: cli.NewValueSourceChain(toml.TOML("database.path", altsrc.NewStringPtrSourcer(&a.configPath))),
			},
			&cli.StringFlag{
				Name:    "lib",
				Usage:   "path to the CrossDB shared library",
				Sources: cli.NewValueSourceChain(toml.TOML("database.library", altsrc.NewStringPtrSourcer(&a.configPath))),
			},
			&cli.IntFlag{
				Name:    "cache",
				Usage:   "prepared statement cache capacity",
				Sources: cli.NewValueSourceChain(toml.TOML("database.statement_cache", altsrc.NewStringPtrSourcer(&a.configPath))),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "console log level (debug, info, warn, error)",
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "run a query and print its rows",
				ArgsUsage: "<sql>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format (table, json, csv, xlsx); defaults to the output extension",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "write to a file instead of stdout",
					},
				},
				Action: a.query,
			},
			{
				Name:      "exec",
				Usage:     "run statements in order and print affected rows",
				ArgsUsage: "<sql>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "tx",
						Usage: "run all statements inside one transaction",
					},
				},
				Action: a.exec,
			},
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	a.cfg = config.NewConfig()
	if a.configPath != "" {
		cfg, err := config.FromFile(a.configPath)
		if err != nil {
			return ctx, err
		}
		a.cfg = cfg
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		a.cfg.Logging.ConsoleLevel = lvl
	}

	log, closer, err := logger.New(a.cfg.Logging, a.errOut)
	if err != nil {
		return ctx, err
	}
	a.log, a.logCloser = log, closer
	return ctx, nil
}

func (a *app) after(context.Context, *cli.Command) error {
	if a.logCloser != nil {
		return a.logCloser.Close()
	}
	return nil
}

// connect opens the database described by flags, falling back to the
// loaded configuration. The returned function closes everything.
func (a *app) connect(cmd *cli.Command) (*crossdb.Conn, func(), error) {
	db := a.cfg.Database
	if v := cmd.String("db"); v != "" {
		db.Path = os.ExpandEnv(v)
	}
	if v := cmd.String("lib"); v != "" {
		db.Library = os.ExpandEnv(v)
	}
	if v := cmd.Int("cache"); v != 0 {
		db.StatementCache = int(v)
	}

	eng, unload, err := a.open(db.Library)
	if err != nil {
		return nil, nil, err
	}

	conn, err := crossdb.Open(crossdb.Config{
		Engine:                 eng,
		Path:                   db.Path,
		StatementCacheCapacity: db.StatementCache,
		Logger:                 a.log,
	})
	if err != nil {
		_ = unload()
		return nil, nil, err
	}
	a.log.Debug("Opened database", "db", db.Path, "library", db.Library)

	return conn, func() {
		if err := conn.Close(); err != nil {
			a.log.Error("Error closing database", "error", err)
		}
		if err := unload(); err != nil {
			a.log.Error("Error unloading library", "error", err)
		}
	}, nil
}

func (a *app) query(ctx context.Context, cmd *cli.Command) error {
	sql := cmd.Args().First()
	if sql == "" {
		return errMissingSQL
	}
	output := cmd.String("output")
	format, err := export.ParseFormat(cmd.String("format"), output)
	if err != nil {
		return err
	}

	conn, done, err := a.connect(cmd)
	if err != nil {
		return err
	}
	defer done()

	res, err := conn.Query(sql)
	if err != nil {
		return err
	}
	set, err := export.Read(res)
	if err != nil {
		return err
	}

	w := a.out
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(ctx, w, format, set); err != nil {
		return err
	}
	a.log.Debug("Wrote rows", "rows", len(set.Rows), "format", format)
	return nil
}

func (a *app) exec(_ context.Context, cmd *cli.Command) (err error) {
	stmts := cmd.Args().Slice()
	if len(stmts) == 0 {
		return errMissingSQL
	}

	conn, done, err := a.connect(cmd)
	if err != nil {
		return err
	}
	defer done()

	if cmd.Bool("tx") {
		if err := conn.Begin(); err != nil {
			return err
		}
		defer func() {
			if err != nil {
				err = errors.Join(err, conn.Rollback())
				return
			}
			err = conn.Commit()
		}()
	}

	for _, sql := range stmts {
		res, err := conn.Exec(sql)
		if err != nil {
			return fmt.Errorf("%s: %w", sql, err)
		}
		fmt.Fprintf(a.out, "affected=%d insert_id=%d\n", res.AffectedRows, res.InsertID)
	}
	return nil
}
