// Package workflow runs the download, clip and validate steps and renders
// their outcome into one Pane per step. The terminal form and the command
// line share it.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/edward-yakop/go-tidemodel/api/auth"
	"github.com/edward-yakop/go-tidemodel/api/tidemodel"
	"github.com/edward-yakop/go-tidemodel/internal/misc"
	"github.com/pkg/errors"
)

const (
	StepDownload = "download"
	StepClip     = "clip"
	StepValidate = "validate"

	// RemediationHint is shown whenever the model cannot be located.
	RemediationHint = "The tide model could not be located. Delete the tide_model folder, then download and clip the model again."
	// SuccessFormat renders the located model folder.
	SuccessFormat = "The downloaded tide is at '%s'"
)

var log = misc.NewLogger("Workflow", 2)

// ErrBusy is returned when a step is triggered while another one runs.
var ErrBusy = errors.New("another step is running")

type Service interface {
	Download(ctx context.Context, creds auth.Credentials) (*tidemodel.DownloadResult, error)
	Clip(ctx context.Context) (*tidemodel.ClipResult, error)
	Locate(ctx context.Context) (string, error)
}

// Observer is told about every step run.
type Observer interface {
	ObserveStep(step string, start time.Time, err error)
	AddDownloadBytes(n int64)
	AddClippedFiles(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveStep(string, time.Time, error) {}
func (nopObserver) AddDownloadBytes(int64)               {}
func (nopObserver) AddClippedFiles(int)                  {}

type Workflow struct {
	svc  Service
	obs  Observer
	busy atomic.Bool
	// step currently running, progress lines go to its pane
	active atomic.Pointer[Pane]

	DownloadPane Pane
	ClipPane     Pane
	ValidatePane Pane
}

func New(svc Service, obs Observer) *Workflow {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Workflow{
		svc: svc,
		obs: obs,
	}
}

func (w *Workflow) Busy() bool {
	return w.busy.Load()
}

// run clears pane and runs fn unless another step is running.
func (w *Workflow) run(step string, pane *Pane, fn func() error) error {
	if !w.busy.CompareAndSwap(false, true) {
		log.Trace("Ignoring %s, another step is running.", step)
		return ErrBusy
	}
	defer w.busy.Store(false)

	pane.Clear()
	w.active.Store(pane)
	defer w.active.Store(nil)

	start := time.Now()
	err := fn()
	w.obs.ObserveStep(step, start, err)
	if err != nil {
		log.Warn("Step %s failed: %v", step, err)
	}
	return err
}

// Submit downloads the model with exactly the given username and password.
func (w *Workflow) Submit(ctx context.Context, username, password string) error {
	return w.run(StepDownload, &w.DownloadPane, func() error {
		misc.Conceal(password)
		creds := auth.NewCredentials(username, password)
		result, err := w.svc.Download(ctx, creds)
		if err != nil {
			w.DownloadPane.Printf("Error: %s", err.Error())
			return err
		}

		w.obs.AddDownloadBytes(result.Bytes)
		if result.Skipped {
			w.DownloadPane.Printf("Tide model already downloaded, %d constituent grids.", len(result.Files))
			return nil
		}
		w.DownloadPane.Printf("Downloaded %d constituent grids, %s.", len(result.Files), humanBytes(result.Bytes))
		if len(result.Missing) > 0 {
			w.DownloadPane.Printf("Not provided by the source: %s.", strings.Join(result.Missing, ", "))
		}
		return nil
	})
}

// ClipRegions clips the downloaded model into its regions.
func (w *Workflow) ClipRegions(ctx context.Context) error {
	return w.run(StepClip, &w.ClipPane, func() error {
		result, err := w.svc.Clip(ctx)
		if err != nil {
			w.ClipPane.Printf("Error: %s", err.Error())
			return err
		}

		w.obs.AddClippedFiles(result.Clipped)
		w.ClipPane.Printf("Clipped %d regional grids, kept %d. Manifest at '%s'.",
			result.Clipped, result.Skipped, result.Manifest)
		return nil
	})
}

// Validate locates the model, it reports the folder and whether it was found.
func (w *Workflow) Validate(ctx context.Context) (string, bool) {
	var path string
	err := w.run(StepValidate, &w.ValidatePane, func() error {
		var err error
		if path, err = w.svc.Locate(ctx); err != nil {
			w.ValidatePane.Println(RemediationHint)
			w.ValidatePane.Println(err.Error())
			return err
		}
		w.ValidatePane.Printf(SuccessFormat, path)
		return nil
	})
	return path, err == nil
}

// Progress appends a listener event to the pane of the running step.
func (w *Workflow) Progress(code string, err error, curr, count int) {
	pane := w.active.Load()
	if pane == nil {
		return
	}
	if err != nil {
		pane.Printf("[%d/%d] %s: %v", curr, count, code, err)
		return
	}
	pane.Printf("[%d/%d] %s", curr, count, code)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
