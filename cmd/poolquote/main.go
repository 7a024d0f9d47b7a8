// Command poolquote prices pool enclosures from the command line and manages
// the reference data and saved quotes of a local database.
//
// Usage:
//
//	poolquote quote --prices cenik.csv --surcharges priplatky.csv --model PRACTIC --width 3500 --modules 3
//	poolquote --db quotes.db import prices cenik.xlsx
//	poolquote --db quotes.db quotes list --query Novák
//	poolquote --db quotes.db surcharge --premium RAL
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/Simplici0/poolquote/internal/config"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "poolquote",
		Usage:     "Pool enclosure quoting",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "db",
				Value:   "./dev.db",
				Usage:   "SQLite database holding reference data and saved quotes",
				EnvVars: []string{"DB_PATH"},
			},
		},
		Before: func(c *cli.Context) error {
			c.App.Metadata = map[string]any{
				"logger": config.NewLogger(c.App.ErrWriter, c.String("log-level"), true),
			}
			return nil
		},
		Commands: []*cli.Command{
			quoteCommand(),
			importCommand(),
			quotesCommand(),
			surchargeCommand(),
		},
	}
}

func logger(c *cli.Context) zerolog.Logger {
	if l, ok := c.App.Metadata["logger"].(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}
