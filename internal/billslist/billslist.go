// Package billslist loads the signed-in user's bills and prepares them for
// display.
package billslist

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/billed-dev/billed/internal/model"
	"github.com/billed-dev/billed/internal/nav"
	"github.com/billed-dev/billed/internal/remote"
)

// PreviewTitle is the heading of the receipt preview.
const PreviewTitle = "Justificatif"

// Listing is the result of a load: either Bills or a classified failure.
type Listing struct {
	Bills   []model.Bill
	Err     error
	Kind    remote.Kind
	Message string
}

// Failed reports whether the load was rejected.
func (l Listing) Failed() bool {
	return l.Err != nil
}

// Preview drives the receipt preview for one bill.
type Preview struct {
	URL   string
	Title string
}

// Workflow loads and holds the bill listing. Loads may overlap: a load
// replaces the held listing only if no later-started load has resolved
// first, so a slow older request never overwrites a newer one.
type Workflow struct {
	store     remote.Store
	navigator nav.Navigator
	user      model.User

	mu      sync.Mutex
	started uint64
	applied uint64
	last    Listing
}

// New returns a workflow for user.
func New(store remote.Store, navigator nav.Navigator, user model.User) *Workflow {
	return &Workflow{store: store, navigator: navigator, user: user}
}

// Load fetches the bills from the store. On failure the returned Listing
// carries the classified error and the error is returned unchanged.
func (w *Workflow) Load(ctx context.Context) (Listing, error) {
	w.mu.Lock()
	w.started++
	seq := w.started
	w.mu.Unlock()

	bills, err := w.store.List(ctx)

	var l Listing
	if err != nil {
		kind := remote.Classify(err)
		slog.Error("Loading bills failed", "kind", kind, "error", err)
		l = Listing{Err: err, Kind: kind, Message: remote.UserMessage(kind, err)}
	} else {
		l = Listing{Bills: w.prepare(bills)}
	}

	w.mu.Lock()
	if seq > w.applied {
		w.applied = seq
		w.last = l
	}
	w.mu.Unlock()

	return l, err
}

// Last returns the listing from the newest resolved load.
func (w *Workflow) Last() Listing {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// prepare scopes, normalizes and orders bills newest first. Records with an
// unreadable date keep the raw value.
func (w *Workflow) prepare(bills []model.Bill) []model.Bill {
	out := make([]model.Bill, 0, len(bills))
	for _, b := range bills {
		if w.user.Type != model.RoleAdmin && w.user.Email != "" && !strings.EqualFold(b.Email, w.user.Email) {
			continue
		}
		iso, err := NormalizeDate(b.Date)
		if err != nil {
			slog.Warn("Keeping unparseable bill date", "id", b.ID, "date", b.Date)
		}
		b.Date = iso
		if b.Status == "" {
			b.Status = model.StatusPending
		}
		out = append(out, b)
	}
	slices.SortStableFunc(out, func(a, b model.Bill) int {
		return strings.Compare(b.Date, a.Date)
	})
	return out
}

// IconClickedFor returns what the receipt preview shows for bill.
func (w *Workflow) IconClickedFor(bill model.Bill) Preview {
	return Preview{URL: bill.FileURL, Title: PreviewTitle}
}

// HandleClickNewBill opens the creation view.
func (w *Workflow) HandleClickNewBill() {
	w.navigator.Navigate(nav.RouteNewBill)
}
