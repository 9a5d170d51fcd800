package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/irfndi/kpi-projection/internal/app"
	"github.com/irfndi/kpi-projection/internal/config"
	"github.com/irfndi/kpi-projection/internal/models"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Backtest failed: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	backtest models.BacktestConfig
	asJSON   bool
}

func parseFlags(args []string) (options, error) {
	def := models.DefaultBacktestConfig()
	fs := pflag.NewFlagSet("backtest", pflag.ContinueOnError)

	var opts options
	fs.IntVar(&opts.backtest.ObservedDays, "observed-days", def.ObservedDays, "days of history used for fitting")
	fs.IntVar(&opts.backtest.HoldoutDays, "holdout-days", def.HoldoutDays, "days predicted and scored")
	fs.Float64Var(&opts.backtest.DecayPower, "decay-power", def.DecayPower, "exponent of the baseline d1*t^b model")
	fs.BoolVar(&opts.asJSON, "json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func run(args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := context.Background()
	rt, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx) }()

	if _, err := rt.OpenStore(ctx); err != nil {
		return fmt.Errorf("failed to open reference store: %w", err)
	}
	_, backtests := rt.Services()

	report, err := backtests.Run(ctx, opts.backtest)
	if err != nil {
		return err
	}
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(out, report)
}

func printReport(out io.Writer, r *models.BacktestReport) error {
	fmt.Fprintf(out, "Retention backtest: observe D1-D%d, score D%d-D%d, baseline d1*t^%.2f\n\n",
		r.Config.ObservedDays, r.Config.ObservedDays+1, r.Config.ObservedDays+r.Config.HoldoutDays, r.Config.DecayPower)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "game\tdays\td1\td30 actual\td30 pred\tmape %\tmax err %\tfitted mape %\t")
	for _, g := range r.Games {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.2f\t%.2f\t%.2f\t\n",
			g.Game, g.Days, g.ActualD1, g.ActualD30, g.PredictedD30, g.MAPE, g.MaxError, g.FittedMAPE)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintf(out, "\nskipped: %v\n", r.Skipped)
	}
	fmt.Fprintf(out, "\naverage %.2f%%  median %.2f%%  min %.2f%%  max %.2f%%  fitted average %.2f%%\n",
		r.AverageMAPE, r.MedianMAPE, r.MinMAPE, r.MaxMAPE, r.AverageFittedMAPE)
	_, err := fmt.Fprintf(out, "confidence: %s\n", r.Confidence)
	return err
}
