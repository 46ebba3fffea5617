package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grclookup/internal/config"
	logpkg "github.com/kailas-cloud/grclookup/internal/logger"
	grclookup "github.com/kailas-cloud/grclookup/pkg/sdk"
)

type lookupFlags struct {
	app          string
	field        string
	showProtocol bool
	noColor      bool
}

func newLookupCmd(env *string) *cobra.Command {
	var f lookupFlags

	cmd := &cobra.Command{
		Use:   "lookup VALUE [VALUE...]",
		Short: "Resolve one or more field values to record ids",
		Example: `  grclookup lookup --app Incidents --field "Ticket Number" INC-12345
  grclookup lookup --app Risks --field Priority High Low`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.noColor {
				color.NoColor = true
			}
			return runLookup(cmd.Context(), cmd.OutOrStdout(), *env, f, args)
		},
	}
	cmd.Flags().StringVarP(&f.app, "app", "a", "", "application name (exact)")
	cmd.Flags().StringVarP(&f.field, "field", "f", "", "field display name")
	cmd.Flags().BoolVar(&f.showProtocol, "protocol", false, "print the search protocol the session uses")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colored output")
	_ = cmd.MarkFlagRequired("app")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func runLookup(ctx context.Context, w io.Writer, env string, f lookupFlags, values []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := grclookup.New(ctx, clientOptions(cfg, logger)...)
	if err != nil {
		return err
	}

	if f.showProtocol {
		p, err := client.Protocol(ctx, f.app)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "protocol: %s\n", p)
	}

	if len(values) == 1 {
		id, found, err := client.LookupOne(ctx, f.app, f.field, values[0])
		if err != nil {
			return reportLookupError(w, err)
		}
		renderOne(w, values[0], id, found)
		return nil
	}

	res, err := client.LookupMany(ctx, f.app, f.field, values)
	if err != nil {
		return reportLookupError(w, err)
	}
	renderMany(w, res)
	return nil
}

func clientOptions(cfg config.Config, logger *zap.Logger) []grclookup.Option {
	opts := []grclookup.Option{
		grclookup.WithArcher(cfg.Archer.BaseURL, cfg.Archer.Instance),
		grclookup.WithTimeout(time.Duration(cfg.Archer.TimeoutSec) * time.Second),
		grclookup.WithConcurrency(cfg.Lookup.Concurrency),
		grclookup.WithChunkSize(cfg.Lookup.ChunkSize),
		grclookup.WithPageSize(cfg.Lookup.PageSize),
		grclookup.WithMaxQueryLength(cfg.Legacy.MaxQueryLength),
		grclookup.WithLogger(logger),
	}
	if cfg.Archer.SessionToken != "" {
		opts = append(opts, grclookup.WithSessionToken(cfg.Archer.SessionToken))
	} else {
		opts = append(opts, grclookup.WithCredentials(cfg.Archer.Username, cfg.Archer.UserDomain, cfg.Archer.Password))
	}
	if cfg.Archer.InsecureSkipVerify {
		opts = append(opts, grclookup.WithInsecureSkipVerify())
	}
	return opts
}

func renderOne(w io.Writer, value string, id int, found bool) {
	if !found {
		fmt.Fprintf(w, "%s  %s\n", color.YellowString("not found"), value)
		return
	}
	fmt.Fprintf(w, "%s  %s\n", color.GreenString("%d", id), value)
}

func renderMany(w io.Writer, res *grclookup.BulkResult) {
	for _, v := range res.Values() {
		id, ok := res.Get(v)
		renderOne(w, v, id, ok)
	}
	fmt.Fprintf(w, "\n%d of %d values resolved\n", res.Found(), res.Len())
}

// reportLookupError prints ambiguity details before returning the error.
func reportLookupError(w io.Writer, err error) error {
	var ame *grclookup.AmbiguousMatchError
	if errors.As(err, &ame) {
		for _, m := range ame.Matches {
			fmt.Fprintf(w, "%s  %s  %v\n", color.RedString("ambiguous"), m.Value, m.IDs)
		}
	}
	fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
	return err
}
