package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/billed-dev/billed/internal/activity"
	"github.com/billed-dev/billed/internal/billslist"
	"github.com/billed-dev/billed/internal/config"
	"github.com/billed-dev/billed/internal/model"
	"github.com/billed-dev/billed/internal/nav"
	"github.com/billed-dev/billed/internal/newbill"
	"github.com/billed-dev/billed/internal/receipt"
	"github.com/billed-dev/billed/internal/remote"
	"github.com/billed-dev/billed/internal/session"
	"github.com/billed-dev/billed/internal/view"
)

// app wires the session, the remote store and the router for one command.
type app struct {
	ctx     context.Context
	cfg     *config.Config
	out     io.Writer
	session *session.Session
	router  *nav.Router

	// err collects what route handlers report, since handlers return nothing.
	err error
}

func newApp(cmd *cobra.Command, cfg *config.Config) *app {
	a := &app{
		ctx:     cmd.Context(),
		cfg:     cfg,
		out:     cmd.OutOrStdout(),
		session: session.New(session.NewFileKV(cfg.Session.File)),
	}
	if a.ctx == nil {
		a.ctx = context.Background()
	}
	a.router = nav.NewRouter(a.session)
	a.router.Handle(nav.RouteLogin, func(string) { a.showLogin() })
	a.router.Handle(nav.RouteBills, func(string) { a.report(a.showBills()) })
	a.router.Handle(nav.RouteNewBill, func(string) {
		fmt.Fprintln(a.out, "Envoyer une note de frais: billed bills new --type ... --name ... --amount ... --date ...")
	})
	return a
}

func (a *app) report(err error) {
	a.err = errors.Join(a.err, err)
}

func (a *app) showLogin() {
	fmt.Fprintln(a.out, "Aucune session. Connectez-vous avec: billed login --email <email> --password <mot de passe>")
	a.report(session.ErrNoSession)
}

// user returns the signed-in user, or routes to the login view.
func (a *app) user() (model.User, error) {
	u, err := a.session.Current()
	if err != nil {
		a.router.Navigate(nav.RouteLogin)
		return model.User{}, err
	}
	return u, nil
}

func (a *app) store(u model.User) *remote.HTTPStore {
	return remote.NewHTTPStore(a.cfg.API.BaseURL, u.Token)
}

func (a *app) showBills() error {
	u, err := a.user()
	if err != nil {
		return err
	}
	listing, err := billslist.New(a.store(u), a.router, u).Load(a.ctx)
	a.record(u, "list", err, "", fmt.Sprintf("%d bills", len(listing.Bills)))
	if werr := view.Bills(a.out, listing); werr != nil {
		return werr
	}
	return err
}

// loadBills fetches the prepared listing for u.
func (a *app) loadBills(u model.User) ([]model.Bill, error) {
	listing, err := billslist.New(a.store(u), a.router, u).Load(a.ctx)
	if err != nil {
		return nil, fmt.Errorf("loading bills: %s: %w", listing.Message, err)
	}
	return listing.Bills, nil
}

// record appends an activity entry. Failures are logged, never returned.
func (a *app) record(u model.User, action string, err error, billID, details string) {
	path := a.cfg.Log.ActivityLog
	if path == "" {
		return
	}
	e := activity.Entry{
		Timestamp: time.Now(),
		User:      u.Email,
		Action:    action,
		Outcome:   outcome(err),
		BillID:    billID,
		Details:   details,
	}
	if err := activity.Open(path).Record(e); err != nil {
		slog.Warn("Could not write activity log", "path", path, "error", err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, newbill.ErrInvalidForm):
		return "invalid-form"
	case errors.Is(err, newbill.ErrMissingReceipt):
		return "missing-receipt"
	case errors.Is(err, receipt.ErrInvalidExtension):
		return string(remote.KindInvalidExtension)
	default:
		return string(remote.Classify(err))
	}
}
