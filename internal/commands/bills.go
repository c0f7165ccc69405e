package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/billed-dev/billed/internal/billslist"
	"github.com/billed-dev/billed/internal/export"
	"github.com/billed-dev/billed/internal/model"
	"github.com/billed-dev/billed/internal/nav"
	"github.com/billed-dev/billed/internal/newbill"
	"github.com/billed-dev/billed/internal/receipt"
	"github.com/billed-dev/billed/internal/remote"
	"github.com/billed-dev/billed/internal/view"
)

func newBillsCommand(opts *rootOptions) *cobra.Command {
	billsCmd := &cobra.Command{
		Use:   "bills",
		Short: "List, submit and review bills",
	}
	billsCmd.AddCommand(newBillsListCommand(opts))
	billsCmd.AddCommand(newBillsNewCommand(opts))
	billsCmd.AddCommand(newBillsReceiptCommand(opts))
	billsCmd.AddCommand(newBillsStatusCommand(opts))
	billsCmd.AddCommand(newBillsExportCommand(opts))
	return billsCmd
}

func newBillsListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show your bills, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(cmd, opts.cfg)
			a.router.Navigate(nav.RouteBills)
			return a.err
		},
	}
}

func newBillsNewCommand(opts *rootOptions) *cobra.Command {
	var form newbill.Form
	var filePath string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Submit a new bill",
		Long: "Submit a new bill. Categories: " + categoryNames() + ".\n" +
			"Dates are YYYY-MM-DD; the VAT rate defaults to 20%.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(cmd, opts.cfg)
			a.router.Handle(nav.RouteNewBill, func(string) {
				a.report(runNewBill(a, form, filePath))
			})
			a.router.Navigate(nav.RouteNewBill)
			return a.err
		},
	}

	cmd.Flags().StringVar(&form.Type, "type", string(model.CategoryTransports), "expense category")
	cmd.Flags().StringVar(&form.Name, "name", "", "short description (required)")
	cmd.Flags().StringVar(&form.Amount, "amount", "", "amount in whole euros (required)")
	cmd.Flags().StringVar(&form.Date, "date", "", "expense date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&form.VAT, "vat", "", "VAT amount")
	cmd.Flags().StringVar(&form.Pct, "pct", "", "VAT rate in percent")
	cmd.Flags().StringVar(&form.Commentary, "commentary", "", "free-text note")
	cmd.Flags().StringVar(&filePath, "file", "", "receipt image (.jpg, .jpeg or .png)")

	return cmd
}

// runNewBill stages the receipt and submits the form. On success the
// workflow navigates to the listing.
func runNewBill(a *app, form newbill.Form, filePath string) error {
	u, err := a.user()
	if err != nil {
		return err
	}
	wf := newbill.New(a.store(u), a.router, u, newbill.Options{RequireReceipt: a.cfg.Receipts.Required})

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("reading receipt: %w", err)
		}
		if err := wf.OnFileSelected(receipt.File{Name: filepath.Base(filePath), Data: data}); err != nil {
			return a.draftFailed(u, wf, err)
		}
	}

	if err := wf.Submit(a.ctx, form); err != nil {
		return a.draftFailed(u, wf, err)
	}
	d := wf.Draft()
	a.record(u, "submit", nil, d.ID, d.Name)
	return nil
}

func (a *app) draftFailed(u model.User, wf *newbill.Workflow, err error) error {
	d := wf.Draft()
	a.record(u, "submit", err, d.ID, err.Error())
	if werr := view.Draft(a.out, d, wf.State(), err); werr != nil {
		return werr
	}
	return err
}

func categoryNames() string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func newBillsReceiptCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <id>",
		Short: "Show the receipt of a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(cmd, opts.cfg)
			u, err := a.user()
			if err != nil {
				return err
			}
			wf := billslist.New(a.store(u), a.router, u)
			listing, err := wf.Load(a.ctx)
			if err != nil {
				if werr := view.ErrorPage(a.out, listing.Message, err); werr != nil {
					return werr
				}
				return err
			}
			bill, err := findBill(listing.Bills, args[0])
			if err != nil {
				return err
			}
			return view.Preview(a.out, wf.IconClickedFor(bill), bill)
		},
	}
}

func findBill(bills []model.Bill, id string) (model.Bill, error) {
	for _, b := range bills {
		if b.ID == id {
			return b, nil
		}
	}
	return model.Bill{}, fmt.Errorf("bill %s not found", id)
}

func newBillsStatusCommand(opts *rootOptions) *cobra.Command {
	var status, comment string

	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Accept or refuse a bill (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBillStatus(newApp(cmd, opts.cfg), args[0], model.Status(status), comment)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "accepted, refused or pending (required)")
	cmd.Flags().StringVar(&comment, "comment", "", "note for the employee")
	_ = cmd.MarkFlagRequired("status")

	return cmd
}

func runBillStatus(a *app, id string, status model.Status, comment string) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	u, err := a.user()
	if err != nil {
		return err
	}
	if u.Type != model.RoleAdmin {
		return fmt.Errorf("changing a bill status requires an admin session")
	}

	bills, err := a.loadBills(u)
	if err != nil {
		return err
	}
	bill, err := findBill(bills, id)
	if err != nil {
		return err
	}
	bill.Status = status
	bill.CommentAdmin = comment

	data, err := json.Marshal(bill)
	if err != nil {
		return fmt.Errorf("encoding bill: %w", err)
	}
	updated, err := a.store(u).Update(a.ctx, remote.UpdateRequest{Data: data, Selector: bill.ID})
	a.record(u, "status", err, bill.ID, string(status))
	if err != nil {
		return fmt.Errorf("updating bill %s: %s: %w", bill.ID, remote.UserMessage(remote.Classify(err), err), err)
	}

	fmt.Fprintf(a.out, "%s: %s\n", updated.ID, view.StatusLabel(updated.Status))
	return nil
}

func newBillsExportCommand(opts *rootOptions) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export your bills to CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(newApp(cmd, opts.cfg), format, output)
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")

	return cmd
}

func runExport(a *app, format, output string) error {
	write := export.CSV
	switch format {
	case "csv":
	case "xlsx":
		if output == "-" {
			return fmt.Errorf("xlsx export needs --output")
		}
		write = export.XLSX
	default:
		return fmt.Errorf("unknown export format %q", format)
	}

	u, err := a.user()
	if err != nil {
		return err
	}
	bills, err := a.loadBills(u)
	if err != nil {
		return err
	}

	if output == "-" {
		a.record(u, "export", nil, "", format)
		return write(a.out, bills)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer f.Close()
	if err := write(f, bills); err != nil {
		return err
	}
	a.record(u, "export", nil, "", fmt.Sprintf("%s %d bills", format, len(bills)))
	fmt.Fprintf(a.out, "Exported %d bills to %s\n", len(bills), output)
	return f.Close()
}
