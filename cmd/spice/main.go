package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"gonum.org/v1/plot/vg"

	"github.com/edp1096/mna-spice/internal/logging"
	"github.com/edp1096/mna-spice/pkg/analysis"
	"github.com/edp1096/mna-spice/pkg/config"
	"github.com/edp1096/mna-spice/pkg/device"
	"github.com/edp1096/mna-spice/pkg/matrix"
	"github.com/edp1096/mna-spice/pkg/metrics"
	"github.com/edp1096/mna-spice/pkg/netlist"
	"github.com/edp1096/mna-spice/pkg/output"
	"github.com/edp1096/mna-spice/pkg/plot"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	dump       = flag.Bool("dump", false, "print the DC system before solving")
	metricPath = flag.String("metrics", "", "write solver metrics to this file (Prometheus text format)")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("Usage: spice [-config file.yaml] [-dump] <netlist_file>")
	}

	if err := run(flag.Arg(0), os.Stdout); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(path string, w io.Writer) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)
	logging.SetDefault(logger)

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "reading netlist file")
	}
	defer f.Close()

	nl, diag, err := netlist.Parse(f, netlist.WithLogger(logger), netlist.WithModels(cfg.Models()))
	for _, d := range diag.Items() {
		fmt.Fprintln(w, d.Error())
	}
	if err != nil {
		return errors.Wrap(err, "parsing netlist")
	}

	if *dump {
		if err := dumpSystem(nl, cfg, w); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *metricPath != "" {
		cfg.Output.MetricsFile = *metricPath
	}
	opts := cfg.AnalysisOptions(logger)
	if cfg.Output.MetricsFile != "" {
		opts.Metrics = metrics.NewRegistry()
	}

	res, err := analysis.Run(ctx, nl, opts)
	if err != nil {
		return errors.Wrap(err, "analysis")
	}
	if err := opts.Metrics.WriteTextfile(cfg.Output.MetricsFile); err != nil {
		logger.Warn("writing metrics", slog.Any("err", err))
	}
	for _, pe := range res.Failed() {
		fmt.Fprintf(w, "Error: point %g: %v\n", pe.X, pe.Err)
	}

	return report(res, cfg, w)
}

func dumpSystem(nl *netlist.Netlist, cfg *config.Config, w io.Writer) error {
	mat, err := matrix.NewMatrix(nl.Circuit.Size(), false)
	if err != nil {
		return err
	}
	defer mat.Destroy()

	status := &device.CircuitStatus{
		Mode: device.OperatingPointAnalysis,
		Temp: cfg.Solver.Temperature,
		Gmin: cfg.Solver.Gmin,
	}
	if err := nl.Circuit.Stamp(mat, status); err != nil {
		return err
	}
	mat.PrintSystem(w, nl.Circuit.Index().Labels())
	return nil
}

func report(res *analysis.RunResult, cfg *config.Config, w io.Writer) error {
	if res.Kind == netlist.KindDC && res.DC != nil && len(res.Prints) == 0 {
		fmt.Fprintln(w, "\nOperating Point:")
		return output.WriteOperatingPoint(w, res.DC)
	}

	var table, chart []output.Series
	for _, req := range res.Prints {
		s, err := output.Extract(res, req)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}
		if req.Plot {
			chart = append(chart, s)
		} else {
			table = append(table, s)
		}
	}

	if len(table) > 0 {
		fmt.Fprintf(w, "\n%s Analysis:\n", res.Kind)
		if err := output.WriteTable(w, table); err != nil {
			return err
		}
	}

	if len(chart) > 0 {
		opts := plot.DefaultOptions()
		opts.Title = res.Kind.String()
		opts.Format = cfg.Output.PlotFormat
		opts.Width = vg.Length(cfg.Output.Width) * vg.Centimeter
		opts.Height = vg.Length(cfg.Output.Height) * vg.Centimeter

		file, err := plot.Save(cfg.Output.PlotDir, res.Kind.String(), chart, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nPlot written to %s\n", file)
	}

	return nil
}
