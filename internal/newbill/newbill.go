// Package newbill drives the creation of one expense claim: receipt
// selection, submission to the remote store, and navigation back to the
// listing.
package newbill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/billed-dev/billed/internal/model"
	"github.com/billed-dev/billed/internal/nav"
	"github.com/billed-dev/billed/internal/receipt"
	"github.com/billed-dev/billed/internal/remote"
)

// State is the position of the workflow in its submission lifecycle.
type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var (
	// ErrSubmitInFlight is returned by Submit and OnFileSelected while a
	// submission is outstanding.
	ErrSubmitInFlight = errors.New("a submission is already in progress")

	// ErrMissingReceipt is returned when receipts are required and none is staged.
	ErrMissingReceipt = errors.New("a receipt is required")
)

// Options tune submission policy.
type Options struct {
	// RequireReceipt rejects submissions without a staged receipt.
	RequireReceipt bool
}

// Workflow owns one bill draft. It is safe for concurrent use; only one
// submission runs at a time.
type Workflow struct {
	store     remote.Store
	navigator nav.Navigator
	email     string
	opts      Options

	mu      sync.Mutex
	state   State
	staged  *receipt.File
	form    Form
	draft   model.Bill
	lastErr error

	// created is the record opened by a submit whose update failed, and
	// createdWith the receipt it was opened with. A retry with the same
	// receipt updates that record instead of creating another.
	created     *remote.CreateResult
	createdWith *receipt.File
}

// New returns a workflow in the Editing state for user.
func New(store remote.Store, navigator nav.Navigator, user model.User, opts Options) *Workflow {
	return &Workflow{
		store:     store,
		navigator: navigator,
		email:     user.Email,
		opts:      opts,
		state:     StateEditing,
		draft:     model.Bill{Email: user.Email, Status: model.StatusPending},
	}
}

// OnFileSelected validates file and stages it. An invalid file clears any
// previously staged receipt and returns receipt.ErrInvalidExtension.
func (w *Workflow) OnFileSelected(file receipt.File) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateSubmitting {
		return ErrSubmitInFlight
	}

	w.state = StateValidating
	err := receipt.Validate(file.Name)
	w.state = StateEditing
	if err != nil {
		w.staged = nil
		w.draft.FileName = ""
		w.draft.FileURL = ""
		slog.Warn("Receipt rejected", "file", file.Name, "error", err)
		return err
	}

	staged := file
	w.staged = &staged
	w.draft.FileName = file.Name
	return nil
}

// Submit creates the bill remotely and navigates to the listing on success.
// Field errors and receipt policy are checked before any remote call. A
// remote rejection leaves the workflow Failed with the form preserved; the
// returned error can be passed to remote.Classify.
func (w *Workflow) Submit(ctx context.Context, form Form) error {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return ErrSubmitInFlight
	}
	w.form = form

	bill, err := parseForm(form, w.email)
	if err != nil {
		w.state = StateEditing
		w.mu.Unlock()
		return err
	}
	if w.opts.RequireReceipt && w.staged == nil {
		w.state = StateEditing
		w.mu.Unlock()
		return ErrMissingReceipt
	}

	file := w.staged
	var pending *remote.CreateResult
	if w.created != nil && w.createdWith == file {
		pending = w.created
	}
	w.state = StateSubmitting
	w.lastErr = nil
	w.mu.Unlock()

	var created remote.CreateResult
	if pending != nil {
		created = *pending
		slog.Info("Retrying update of created bill", "id", created.ID)
	} else {
		created, err = w.store.Create(ctx, remote.CreateRequest{
			Data:    &remote.Form{Email: w.email, File: file},
			Headers: remote.Headers{NoContentType: true},
		})
		if err != nil {
			return w.fail(fmt.Errorf("creating bill: %w", err))
		}
	}

	bill.ID = created.ID
	if bill.ID == "" {
		bill.ID = created.Key
	}
	if file != nil && created.FileURL != "" {
		bill.FileURL = created.FileURL
		bill.FileName = created.FileName
		if bill.FileName == "" {
			bill.FileName = file.Name
		}
	}

	w.mu.Lock()
	w.draft = bill
	w.created = &created
	w.createdWith = file
	w.mu.Unlock()

	data, err := json.Marshal(bill)
	if err != nil {
		return w.fail(fmt.Errorf("encoding bill: %w", err))
	}
	updated, err := w.store.Update(ctx, remote.UpdateRequest{Data: data, Selector: bill.ID})
	if err != nil {
		return w.fail(fmt.Errorf("updating bill %s: %w", bill.ID, err))
	}
	if updated.Status.Valid() {
		bill.Status = updated.Status
	}

	w.mu.Lock()
	w.draft = bill
	w.staged = nil
	w.created = nil
	w.createdWith = nil
	w.state = StateSucceeded
	w.mu.Unlock()

	slog.Info("Bill submitted", "id", bill.ID, "receipt", bill.FileName)
	w.navigator.Navigate(nav.RouteBills)
	return nil
}

func (w *Workflow) fail(err error) error {
	kind := remote.Classify(err)
	slog.Error("Bill submission failed", "kind", kind, "error", err)

	w.mu.Lock()
	w.state = StateFailed
	w.lastErr = err
	w.mu.Unlock()
	return err
}

// State returns the current lifecycle state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Form returns the last form passed to Submit.
func (w *Workflow) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Draft returns the in-memory bill, including the id and receipt URL once created.
func (w *Workflow) Draft() model.Bill {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// StagedFile returns the accepted receipt, or nil.
func (w *Workflow) StagedFile() *receipt.File {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.staged == nil {
		return nil
	}
	f := *w.staged
	return &f
}

// Err returns the error of the last failed submission.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}
