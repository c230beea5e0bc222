package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/edward-yakop/go-tidemodel/api/auth"
	"github.com/edward-yakop/go-tidemodel/api/tidemodel"
	"github.com/edward-yakop/go-tidemodel/internal/config"
	"github.com/edward-yakop/go-tidemodel/internal/metrics"
	"github.com/edward-yakop/go-tidemodel/internal/misc"
	"github.com/edward-yakop/go-tidemodel/internal/tui"
	"github.com/edward-yakop/go-tidemodel/internal/workflow"
	"github.com/pkg/errors"
)

var log = misc.NewLogger("App", 2)

const stepAll = "all"

var allSteps = []string{workflow.StepDownload, workflow.StepClip, workflow.StepValidate}

type ArgsList struct {
	Verbose     bool
	Interactive bool
	Force       bool
	Parallel    int
	Config      string
	Step        string
	Username    string
	Dir         string
	Regions     string
	Source      string
	Layout      string
	RemotePath  string
	Lon         string
	Lat         string
	LogFile     string
	MetricsFile string
}

// AppOption is the validated configuration of a run
type AppOption struct {
	Steps       []string
	Interactive bool
	Credentials auth.Credentials
	Model       tidemodel.Options
	HasPoint    bool
	Lon         float64
	Lat         float64
	LogFile     string
	MetricsFile string
}

// ParseOption merges the flags with the config file and the environment.
// Flags win.
func ParseOption(args ArgsList) (*AppOption, error) {
	if err := config.LoadEnv(config.DefaultEnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(args.Config)
	if err != nil {
		return nil, err
	}

	opt := AppOption{
		Interactive: args.Interactive,
		LogFile:     firstNonEmpty(args.LogFile, cfg.LogFile),
		MetricsFile: firstNonEmpty(args.MetricsFile, cfg.MetricsFile),
		Model: tidemodel.Options{
			Dir:         firstNonEmpty(args.Dir, cfg.Dir, tidemodel.DefaultDir),
			Source:      firstNonEmpty(args.Source, cfg.Source),
			Layout:      firstNonEmpty(args.Layout, cfg.Layout),
			RemotePath:  firstNonEmpty(args.RemotePath, cfg.RemotePath),
			RegionsFile: firstNonEmpty(args.Regions, cfg.RegionsFile),
			Parallel:    cfg.Parallel,
			Retries:     cfg.Retries,
			RetryWait:   cfg.RetryWait,
			Force:       args.Force,
		},
	}
	if args.Parallel > 0 {
		opt.Model.Parallel = args.Parallel
	}

	if opt.Steps, err = parseSteps(args.Step, args.Interactive); err != nil {
		return nil, err
	}
	if opt.Model.Dir, err = filepath.Abs(opt.Model.Dir); err != nil {
		return nil, errors.Wrap(err, "invalid model folder")
	}
	// Reject a bad layout, source or region map before anything runs.
	if _, err = tidemodel.New(opt.Model); err != nil {
		return nil, err
	}

	creds, err := config.Credentials()
	if err != nil {
		return nil, err
	}
	if args.Username != "" {
		creds = auth.NewCredentials(strings.TrimSpace(args.Username), creds.Password())
	}
	opt.Credentials = creds
	misc.Conceal(creds.Password())
	if !opt.Interactive && containsStep(opt.Steps, workflow.StepDownload) && creds.IsZero() {
		return nil, errors.New("the download step needs AVISO_USERNAME (or -user) and AVISO_PASSWORD")
	}

	if args.Lon != "" || args.Lat != "" {
		if opt.Lon, err = strconv.ParseFloat(args.Lon, 64); err != nil {
			return nil, fmt.Errorf("invalid lon parameter [%s]", args.Lon)
		}
		if opt.Lat, err = strconv.ParseFloat(args.Lat, 64); err != nil {
			return nil, fmt.Errorf("invalid lat parameter [%s]", args.Lat)
		}
		if opt.Lat < -90 || opt.Lat > 90 {
			return nil, fmt.Errorf("lat parameter [%s] out of range", args.Lat)
		}
		opt.HasPoint = true
	}

	return &opt, nil
}

func parseSteps(step string, interactive bool) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(step)) {
	case "":
		if interactive {
			return nil, nil
		}
		return allSteps, nil
	case stepAll:
		return allSteps, nil
	case workflow.StepDownload:
		return []string{workflow.StepDownload}, nil
	case workflow.StepClip:
		return []string{workflow.StepClip}, nil
	case workflow.StepValidate, "locate":
		return []string{workflow.StepValidate}, nil
	}
	return nil, fmt.Errorf("invalid step parameter [%s], expected download, clip, locate or all", step)
}

func containsStep(steps []string, step string) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// TideApp drives the workflow from the command line or the terminal form.
type TideApp struct {
	option  AppOption
	model   *tidemodel.Model
	wf      *workflow.Workflow
	metrics *metrics.Metrics
	program *tui.Program
	out     io.Writer
}

func NewApp(opt *AppOption) (*TideApp, error) {
	app := &TideApp{
		option:  *opt,
		metrics: metrics.New(),
		out:     os.Stdout,
	}

	modelOpts := opt.Model
	modelOpts.Listener = app.progress
	model, err := tidemodel.New(modelOpts)
	if err != nil {
		return nil, err
	}
	app.model = model
	app.wf = workflow.New(model, app.metrics)
	return app, nil
}

func (app *TideApp) progress(code string, err error, curr, count int) {
	if err != nil {
		log.Warn("[%d/%d] %s: %v", curr, count, code, err)
	} else {
		log.Trace("[%d/%d] %s", curr, count, code)
	}
	app.wf.Progress(code, err, curr, count)
	if app.program != nil {
		app.program.Refresh()
	}
}

// Execute runs the form when interactive, the configured steps otherwise. It
// stops at the first failing step and returns its error.
func (app *TideApp) Execute(ctx context.Context) (err error) {
	startTime := time.Now()
	defer func() {
		app.writeMetrics()
		log.Info("Time cost: %v.", time.Since(startTime))
	}()

	if app.option.Interactive {
		return app.RunInteractive(ctx)
	}

	for _, step := range app.option.Steps {
		if err = app.runStep(ctx, step); err != nil {
			return err
		}
	}

	if app.option.HasPoint {
		path, err := app.model.RegionPath(app.option.Lon, app.option.Lat)
		if err != nil {
			fmt.Fprintf(app.out, "Error: %s\n", err)
			return err
		}
		fmt.Fprintf(app.out, "Region of (%.4f, %.4f) is at '%s'\n", app.option.Lon, app.option.Lat, path)
	}
	return nil
}

func (app *TideApp) runStep(ctx context.Context, step string) error {
	var (
		pane *workflow.Pane
		err  error
	)
	switch step {
	case workflow.StepDownload:
		pane = &app.wf.DownloadPane
		err = app.wf.Submit(ctx, app.option.Credentials.Username(), app.option.Credentials.Password())
	case workflow.StepClip:
		pane = &app.wf.ClipPane
		err = app.wf.ClipRegions(ctx)
	case workflow.StepValidate:
		pane = &app.wf.ValidatePane
		if _, ok := app.wf.Validate(ctx); !ok {
			err = errors.New("tide model not located")
		}
	default:
		return errors.New("unknown step [" + step + "]")
	}

	fmt.Fprintf(app.out, "--- %s ---\n", step)
	_, _ = io.WriteString(app.out, pane.String())
	return err
}

// RunInteractive shows the terminal form until the user quits.
func (app *TideApp) RunInteractive(ctx context.Context) error {
	app.program = tui.NewProgram(ctx, app.wf, app.option.Credentials.Username())
	return app.program.Run()
}

func (app *TideApp) writeMetrics() {
	if app.option.MetricsFile == "" {
		return
	}
	if err := app.metrics.WriteTextfile(app.option.MetricsFile); err != nil {
		log.Error("%v", err)
	}
}
