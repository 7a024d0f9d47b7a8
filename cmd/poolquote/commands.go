package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/Simplici0/poolquote/internal/db"
	"github.com/Simplici0/poolquote/internal/export"
	"github.com/Simplici0/poolquote/internal/feed"
	"github.com/Simplici0/poolquote/internal/migrations"
	"github.com/Simplici0/poolquote/internal/pricing"
	"github.com/Simplici0/poolquote/internal/seed"
	"github.com/Simplici0/poolquote/internal/store"
)

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "quote",
		Usage: "Price one configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prices", Usage: "Price feed (CSV or XLSX); the database is used when omitted"},
			&cli.StringFlag{Name: "surcharges", Usage: "Surcharge feed (CSV or XLSX)"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "Model name", Required: true},
			&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Usage: "Width in mm", Required: true},
			&cli.IntFlag{Name: "modules", Aliases: []string{"n"}, Usage: "Module count (2-7)", Required: true},
			&cli.IntFlag{Name: "length", Usage: "Total length in mm (default: standard length)"},
			&cli.StringFlag{Name: "finish", Usage: "silver, bronze, anthracite or ral"},
			&cli.BoolFlag{Name: "poly-roof", Usage: "Full polycarbonate roof"},
			&cli.BoolFlag{Name: "poly-small-face", Usage: "Full polycarbonate small face"},
			&cli.BoolFlag{Name: "poly-large-face", Usage: "Full polycarbonate large face"},
			&cli.BoolFlag{Name: "no-small-face", Usage: "Omit the small face"},
			&cli.BoolFlag{Name: "no-large-face", Usage: "Omit the large face"},
			&cli.BoolFlag{Name: "poly-recolor", Usage: "Coloured polycarbonate"},
			&cli.BoolFlag{Name: "harsh-climate", Usage: "Reinforcement for harsh climate"},
			&cli.IntFlag{Name: "face-doors", Usage: "Face doors (0-2)"},
			&cli.IntFlag{Name: "side-entries", Usage: "Side entries (0-4)"},
			&cli.BoolFlag{Name: "door-lock", Usage: "Door locks"},
			&cli.BoolFlag{Name: "segment-lock", Usage: "Segment lock"},
			&cli.BoolFlag{Name: "vent-flap", Usage: "Ventilation flap"},
			&cli.BoolFlag{Name: "included-rail", Usage: "Rail included in the base price"},
			&cli.BoolFlag{Name: "walking-rail", Usage: "Walkable rail"},
			&cli.BoolFlag{Name: "walking-rail-free", Usage: "Walkable rail at no charge"},
			&cli.StringFlag{Name: "rail-extension", Usage: "Extra rail in metres"},
			&cli.BoolFlag{Name: "assembly", Usage: "Assembly"},
			&cli.StringFlag{Name: "discount", Usage: "Discount in percent"},
			&cli.StringFlag{Name: "transport-km", Usage: "Transport distance in km"},
			&cli.StringFlag{Name: "rate-per-km", Usage: "Transport rate per km", EnvVars: []string{"RATE_PER_KM"}},
			&cli.StringFlag{Name: "vat", Usage: "VAT rate in percent", EnvVars: []string{"VAT_RATE"}},
			&cli.StringFlag{Name: "customer", Usage: "Customer name printed on the offer"},
			&cli.StringFlag{Name: "supplier", Usage: "Supplier name printed on the offer", EnvVars: []string{"SUPPLIER_NAME"}},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "Output format (text, json)"},
			&cli.StringFlag{Name: "pdf", Usage: "Also write the offer as PDF to this path"},
			&cli.StringFlag{Name: "xlsx", Usage: "Also write the offer as XLSX to this path"},
			&cli.BoolFlag{Name: "save", Usage: "Save the quote to the database"},
		},
		Action: runQuote,
	}
}

func runQuote(c *cli.Context) error {
	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}

	snap, err := loadSnapshot(c)
	if err != nil {
		return err
	}

	q, err := pricing.NewBuilder(snap).Build(cfg)
	if err != nil {
		return err
	}
	for _, w := range q.Warnings {
		log := logger(c)
		log.Warn().Msg(w)
	}

	saved := store.SavedQuote{
		Offer:  export.Offer{Customer: c.String("customer")}.WithDefaults(time.Now()),
		Config: cfg,
		Quote:  q,
	}
	if c.Bool("save") {
		st, closeFn, err := openStore(c)
		if err != nil {
			return err
		}
		defer closeFn()
		if saved, err = st.SaveQuote(c.Context, saved); err != nil {
			return err
		}
		log := logger(c)
		log.Info().Str("id", saved.ID).Msg("quote saved")
	}

	return emit(c, saved.Document(supplier(c)), saved)
}

func configFromFlags(c *cli.Context) (pricing.Config, error) {
	cfg := pricing.Config{
		Model:           c.String("model"),
		WidthMm:         c.Int("width"),
		Modules:         c.Int("modules"),
		LengthMm:        c.Int("length"),
		Finish:          pricing.Finish(strings.ToLower(c.String("finish"))),
		PolyRoof:        c.Bool("poly-roof"),
		PolySmallFace:   c.Bool("poly-small-face"),
		PolyLargeFace:   c.Bool("poly-large-face"),
		NoSmallFace:     c.Bool("no-small-face"),
		NoLargeFace:     c.Bool("no-large-face"),
		PolyRecolor:     c.Bool("poly-recolor"),
		HarshClimate:    c.Bool("harsh-climate"),
		FaceDoors:       c.Int("face-doors"),
		SideEntries:     c.Int("side-entries"),
		DoorLock:        c.Bool("door-lock"),
		SegmentLock:     c.Bool("segment-lock"),
		VentFlap:        c.Bool("vent-flap"),
		IncludedRail:    c.Bool("included-rail"),
		WalkingRail:     c.Bool("walking-rail"),
		WalkingRailFree: c.Bool("walking-rail-free"),
		Assembly:        c.Bool("assembly"),
	}

	var err error
	if cfg.RailExtensionM, err = decimalFlag(c, "rail-extension"); err != nil {
		return cfg, err
	}
	if cfg.DiscountPct, err = decimalFlag(c, "discount"); err != nil {
		return cfg, err
	}
	if cfg.TransportKm, err = decimalFlag(c, "transport-km"); err != nil {
		return cfg, err
	}
	if c.String("rate-per-km") != "" {
		v, err := decimalFlag(c, "rate-per-km")
		if err != nil {
			return cfg, err
		}
		cfg.RatePerKm = &v
	}
	if c.String("vat") != "" {
		v, err := decimalFlag(c, "vat")
		if err != nil {
			return cfg, err
		}
		cfg.VatRate = &v
	}
	return cfg, nil
}

func decimalFlag(c *cli.Context, name string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.String(name))
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %q is not a number", name, raw)
	}
	return v, nil
}

// loadSnapshot reads reference data from feed files when --prices is given
// and from the database otherwise.
func loadSnapshot(c *cli.Context) (*pricing.Snapshot, error) {
	log := logger(c)

	if c.String("prices") == "" {
		st, closeFn, err := openStore(c)
		if err != nil {
			return nil, err
		}
		defer closeFn()
		snap, missing, err := st.LoadSnapshot(c.Context)
		if err != nil {
			return nil, err
		}
		logMissing(c, missing)
		return snap, nil
	}

	rows, err := feed.ReadFile(c.String("prices"))
	if err != nil {
		return nil, fmt.Errorf("read price feed: %w", err)
	}
	entries, err := feed.ParsePriceRows(rows)
	if err != nil {
		return nil, fmt.Errorf("parse price feed: %w", err)
	}
	prices, err := pricing.NewPriceTable(entries)
	if err != nil {
		return nil, err
	}

	var surcharges *pricing.SurchargeTable
	if path := c.String("surcharges"); path != "" {
		rows, err := feed.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read surcharge feed: %w", err)
		}
		rules, err := feed.ParseSurchargeRows(rows)
		if err != nil {
			return nil, fmt.Errorf("parse surcharge feed: %w", err)
		}
		surcharges = pricing.NewSurchargeTable(rules)
	}

	snap, missing := pricing.NewSnapshot(prices, surcharges)
	log.Debug().Int("prices", prices.Len()).Int("surcharges", snap.Surcharges.Len()).Msg("feeds loaded")
	logMissing(c, missing)
	return snap, nil
}

func logMissing(c *cli.Context, missing []*pricing.SurchargeNotFoundError) {
	for _, m := range missing {
		log := logger(c)
		log.Debug().Str("key", string(m.Key)).Str("category", m.Category.String()).Msg("surcharge defaulted")
	}
	if len(missing) > 0 {
		log := logger(c)
		log.Warn().Int("count", len(missing)).Msg("surcharges not found in catalog, defaults used")
	}
}

func supplier(c *cli.Context) export.Supplier {
	return export.Supplier{Name: c.String("supplier")}
}

// emit prints the quote in the requested format and writes any requested
// document files.
func emit(c *cli.Context, doc export.Document, saved store.SavedQuote) error {
	switch c.String("format") {
	case "json":
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(saved); err != nil {
			return err
		}
	case "text", "":
		if err := export.Text(c.App.Writer, doc); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", c.String("format"))
	}

	if path := c.String("pdf"); path != "" {
		if err := writeFile(path, doc, export.PDF); err != nil {
			return err
		}
	}
	if path := c.String("xlsx"); path != "" {
		if err := writeFile(path, doc, export.XLSX); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, doc export.Document, render func(io.Writer, export.Document) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

func openStore(c *cli.Context) (*store.Store, func(), error) {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	database, err := db.Open(ctx, c.String("db"))
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Up(database); err != nil {
		database.Close()
		return nil, nil, err
	}
	if _, err := seed.Run(ctx, database, seed.Config{}); err != nil {
		database.Close()
		return nil, nil, err
	}
	return store.New(database), func() { database.Close() }, nil
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Replace reference data in the database from a feed file",
		Subcommands: []*cli.Command{
			{
				Name:      "prices",
				Usage:     "Import the price list",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					rows, err := readFeedArg(c)
					if err != nil {
						return err
					}
					entries, err := feed.ParsePriceRows(rows)
					if err != nil {
						return err
					}
					return replace(c, "prices", func(st *store.Store) (int, error) {
						return st.ReplacePrices(c.Context, entries)
					})
				},
			},
			{
				Name:      "surcharges",
				Usage:     "Import the surcharge catalog",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					rows, err := readFeedArg(c)
					if err != nil {
						return err
					}
					rules, err := feed.ParseSurchargeRows(rows)
					if err != nil {
						return err
					}
					return replace(c, "surcharges", func(st *store.Store) (int, error) {
						return st.ReplaceSurcharges(c.Context, rules)
					})
				},
			},
		},
	}
}

func readFeedArg(c *cli.Context) ([][]string, error) {
	path := c.Args().First()
	if path == "" {
		return nil, errors.New("missing FILE argument")
	}
	return feed.ReadFile(path)
}

func replace(c *cli.Context, kind string, fn func(*store.Store) (int, error)) error {
	st, closeFn, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeFn()

	n, err := fn(st)
	if err != nil {
		return err
	}
	_, missing, err := st.LoadSnapshot(c.Context)
	if err != nil {
		return err
	}
	logMissing(c, missing)
	log := logger(c)
	log.Info().Str("kind", kind).Int("rows", n).Msg("feed imported")
	fmt.Fprintf(c.App.Writer, "imported %d %s\n", n, kind)
	return nil
}

func quotesCommand() *cli.Command {
	return &cli.Command{
		Name:  "quotes",
		Usage: "Browse saved quotes",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved quotes, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Filter by customer or model"},
					&cli.IntFlag{Name: "limit", Value: 50},
				},
				Action: func(c *cli.Context) error {
					st, closeFn, err := openStore(c)
					if err != nil {
						return err
					}
					defer closeFn()

					quotes, err := st.ListQuotes(c.Context, c.String("query"), c.Int("limit"))
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tCREATED\tCUSTOMER\tMODEL\tTOTAL")
					for _, q := range quotes {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
							q.ID, q.CreatedAt.Local().Format("2006-01-02 15:04"), q.Customer, q.Model, export.FormatCZK(q.TotalInclVat))
					}
					return tw.Flush()
				},
			},
			{
				Name:      "show",
				Usage:     "Print a saved quote and optionally export it",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "Output format (text, json)"},
					&cli.StringFlag{Name: "pdf", Usage: "Write the offer as PDF to this path"},
					&cli.StringFlag{Name: "xlsx", Usage: "Write the offer as XLSX to this path"},
					&cli.StringFlag{Name: "supplier", Usage: "Supplier name printed on the offer", EnvVars: []string{"SUPPLIER_NAME"}},
				},
				Action: func(c *cli.Context) error {
					st, closeFn, err := openStore(c)
					if err != nil {
						return err
					}
					defer closeFn()

					saved, err := st.GetQuote(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					return emit(c, saved.Document(supplier(c)), saved)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a saved quote",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					st, closeFn, err := openStore(c)
					if err != nil {
						return err
					}
					defer closeFn()
					return st.DeleteQuote(c.Context, c.Args().First())
				},
			},
		},
	}
}

func surchargeCommand() *cli.Command {
	return &cli.Command{
		Name:      "surcharge",
		Usage:     "Show the catalog value a surcharge term resolves to",
		ArgsUsage: "TERM",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prices", Usage: "Price feed (CSV or XLSX); the database is used when omitted"},
			&cli.StringFlag{Name: "surcharges", Usage: "Surcharge feed (CSV or XLSX)"},
			&cli.BoolFlag{Name: "premium", Usage: "Search the premium category first"},
		},
		Action: func(c *cli.Context) error {
			term := strings.TrimSpace(c.Args().First())
			if term == "" {
				return errors.New("surcharge term is required")
			}
			snap, err := loadSnapshot(c)
			if err != nil {
				return err
			}
			v := snap.Surcharges.Find(term, c.Bool("premium"))
			switch {
			case v.Percent.IsPositive():
				fmt.Fprintf(c.App.Writer, "%s: %s\n", term, export.FormatPercent(v.Percent.Mul(decimal.NewFromInt(100))))
			case !v.Fixed.IsZero():
				fmt.Fprintf(c.App.Writer, "%s: %s\n", term, export.FormatCZK(v.Fixed))
			default:
				fmt.Fprintf(c.App.Writer, "%s: not in catalog\n", term)
			}
			return nil
		},
	}
}
