package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/edward-yakop/go-tidemodel/internal/app"
	"github.com/edward-yakop/go-tidemodel/internal/misc"
	"unknwon.dev/clog/v2"
)

func main() {
	args := app.ArgsList{}
	flag.StringVar(&args.Config,
		"config", "",
		"YAML config file (default tidemodel.yml when present)")
	flag.StringVar(&args.Step,
		"step", "",
		"step to run: download, clip, locate or all (default all)")
	flag.BoolVar(&args.Interactive,
		"interactive", false,
		"show the interactive form")
	flag.StringVar(&args.Username,
		"user", "",
		"AVISO username, the password is read from AVISO_PASSWORD")
	flag.StringVar(&args.Dir,
		"dir", "",
		"tide model folder (default tide_model)")
	flag.StringVar(&args.Regions,
		"regions", "",
		"GeoJSON region map, the built-in map when empty")
	flag.StringVar(&args.Source,
		"source", "",
		"ftp, ftps, ftp(s)://host[:port] or the http(s) URL of a mirror (default ftp)")
	flag.StringVar(&args.Layout,
		"layout", "",
		"remote layout: archive or files (default archive)")
	flag.StringVar(&args.RemotePath,
		"remote-path", "",
		"remote path of the archive or the constituent folder")
	flag.IntVar(&args.Parallel,
		"parallel", 0,
		"parallel downloads and clip workers")
	flag.BoolVar(&args.Force,
		"force", false,
		"clip again even when regional grids exist")
	flag.StringVar(&args.Lon,
		"lon", "",
		"longitude of a point to resolve to its region folder")
	flag.StringVar(&args.Lat,
		"lat", "",
		"latitude of a point to resolve to its region folder")
	flag.StringVar(&args.LogFile,
		"log-file", "",
		"also write the log into this file, rotated daily")
	flag.StringVar(&args.MetricsFile,
		"metrics-file", "",
		"write metrics in the node-exporter textfile format at exit")
	flag.BoolVar(&args.Verbose,
		"verbose", false,
		"verbose output trace log")
	flag.Parse()

	opt, err := app.ParseOption(args)
	if err != nil {
		fmt.Println("--------------------------------------------")
		fmt.Printf("Error: %s\n", err)
		fmt.Println("--------------------------------------------")
		fmt.Println("Usage:")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// The form owns the terminal.
	if err = misc.SetupLog(args.Verbose, opt.Interactive, opt.LogFile); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	defer clog.Stop()

	if !opt.Interactive {
		fmt.Printf("      Steps: %s\n", strings.Join(opt.Steps, ", "))
		fmt.Printf("     Folder: %s\n", opt.Model.Dir)
		fmt.Printf("     Source: %s\n", orDefault(opt.Model.Source, "ftp"))
		fmt.Printf("     Layout: %s\n", orDefault(opt.Model.Layout, "archive"))
		fmt.Printf("    Regions: %s\n", orDefault(opt.Model.RegionsFile, "built-in"))
		fmt.Printf("   Username: %s\n", opt.Credentials.Username())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if code := run(ctx, opt); code != 0 {
		stop()
		clog.Stop()
		os.Exit(code)
	}
}

// run executes the configured steps and returns the process exit status.
func run(ctx context.Context, opt *app.AppOption) int {
	tideApp, err := app.NewApp(opt)
	if err != nil {
		fmt.Printf("Error: %s\n", misc.Concealed(err.Error()))
		return 1
	}
	// Step errors are already rendered in their panes.
	if err = tideApp.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
