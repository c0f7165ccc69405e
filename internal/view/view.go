// Package view renders the listing, error page, receipt preview and draft
// summary as plain text.
package view

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/billed-dev/billed/internal/billslist"
	"github.com/billed-dev/billed/internal/model"
	"github.com/billed-dev/billed/internal/newbill"
	"github.com/billed-dev/billed/internal/receipt"
	"github.com/billed-dev/billed/internal/remote"
)

// BillsTitle heads the listing.
const BillsTitle = "Mes notes de frais"

// Bills writes the listing, or the error page when the load failed.
// A failed listing never renders a table.
func Bills(w io.Writer, l billslist.Listing) error {
	if l.Failed() {
		return ErrorPage(w, l.Message, l.Err)
	}

	if _, err := fmt.Fprintf(w, "%s\n\n", BillsTitle); err != nil {
		return err
	}
	if len(l.Bills) == 0 {
		_, err := fmt.Fprintln(w, "Aucune note de frais.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tType\tNom\tDate\tMontant\tStatut\tJustificatif")
	for _, b := range l.Bills {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d €\t%s\t%s\n",
			b.ID, b.Type, b.Name, b.Date, b.Amount, StatusLabel(b.Status), b.FileName)
	}
	return tw.Flush()
}

// ErrorPage writes message and, when it adds information, the raw error.
func ErrorPage(w io.Writer, message string, err error) error {
	if _, err := fmt.Fprintf(w, "Erreur\n\n%s\n", message); err != nil {
		return err
	}
	if err != nil && err.Error() != message {
		if _, werr := fmt.Fprintf(w, "(%s)\n", err); werr != nil {
			return werr
		}
	}
	return nil
}

// Preview writes the receipt preview of bill.
func Preview(w io.Writer, p billslist.Preview, bill model.Bill) error {
	url := p.URL
	if url == "" {
		url = "aucun justificatif"
	}
	_, err := fmt.Fprintf(w, "%s\n%s (%s)\n%s\n", p.Title, bill.Name, FormatDate(bill.Date), url)
	return err
}

// Draft writes the state of a creation form. A rejected receipt adds a warning.
func Draft(w io.Writer, d model.Bill, state newbill.State, err error) error {
	if _, werr := fmt.Fprintf(w, "Envoyer une note de frais [%s]\n", state); werr != nil {
		return werr
	}
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "  Type:\t%s\n", d.Type)
	fmt.Fprintf(tw, "  Nom:\t%s\n", d.Name)
	fmt.Fprintf(tw, "  Date:\t%s\n", d.Date)
	fmt.Fprintf(tw, "  Montant:\t%d\n", d.Amount)
	fmt.Fprintf(tw, "  TVA:\t%s (%d%%)\n", d.VAT, d.Pct)
	fmt.Fprintf(tw, "  Commentaire:\t%s\n", d.Commentary)
	fmt.Fprintf(tw, "  Justificatif:\t%s\n", d.FileName)
	if werr := tw.Flush(); werr != nil {
		return werr
	}
	if err == nil {
		return nil
	}
	label := "Erreur"
	if errors.Is(err, receipt.ErrInvalidExtension) {
		label = "Attention"
	}
	_, werr := fmt.Fprintf(w, "%s: %s\n", label, remote.UserMessage(remote.Classify(err), err))
	return werr
}

// StatusLabel is the French label of a status.
func StatusLabel(s model.Status) string {
	switch s {
	case model.StatusAccepted:
		return "Accepté"
	case model.StatusRefused:
		return "Refusé"
	default:
		return "En attente"
	}
}

var shortMonths = [...]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Jui", "Jui", "Aoû", "Sep", "Oct", "Nov", "Déc"}

// FormatDate renders an ISO date as "4 Avr. 04". Anything else is returned unchanged.
func FormatDate(iso string) string {
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return iso
	}
	year := strconv.Itoa(t.Year())
	return fmt.Sprintf("%d %s. %s", t.Day(), shortMonths[t.Month()-1], year[len(year)-2:])
}
