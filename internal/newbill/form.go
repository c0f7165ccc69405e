package newbill

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billed-dev/billed/internal/model"
)

// ErrInvalidForm is returned when a field cannot be turned into a bill.
var ErrInvalidForm = errors.New("invalid bill form")

// Form holds the raw field values as typed by the user.
type Form struct {
	Type       string
	Name       string
	Amount     string
	Date       string
	VAT        string
	Pct        string
	Commentary string
}

// FieldError names the offending field.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e FieldError) Unwrap() error {
	return ErrInvalidForm
}

// parseForm builds a pending bill owned by email from the raw form.
func parseForm(f Form, email string) (model.Bill, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return model.Bill{}, FieldError{"name", "required"}
	}

	category, ok := model.ParseCategory(strings.TrimSpace(f.Type))
	if !ok {
		return model.Bill{}, FieldError{"type", fmt.Sprintf("unknown expense type %q", f.Type)}
	}

	date := strings.TrimSpace(f.Date)
	if date == "" {
		return model.Bill{}, FieldError{"date", "required"}
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return model.Bill{}, FieldError{"date", fmt.Sprintf("%q is not YYYY-MM-DD", f.Date)}
	}

	amount, err := parseAmount(f.Amount)
	if err != nil {
		return model.Bill{}, err
	}

	vat, err := parseVAT(f.VAT)
	if err != nil {
		return model.Bill{}, err
	}

	pct, err := parsePct(f.Pct)
	if err != nil {
		return model.Bill{}, err
	}

	return model.Bill{
		Email:      email,
		Type:       category,
		Name:       name,
		Amount:     amount,
		Date:       date,
		VAT:        vat,
		Pct:        pct,
		Commentary: strings.TrimSpace(f.Commentary),
		Status:     model.StatusPending,
	}, nil
}

func parseAmount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{"amount", "required"}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, FieldError{"amount", fmt.Sprintf("%q is not a number", raw)}
	}
	if d.IsNegative() {
		return 0, FieldError{"amount", "must not be negative"}
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, FieldError{"amount", "must be a whole number"}
	}
	if !d.LessThanOrEqual(decimal.NewFromInt(int64(maxAmount))) {
		return 0, FieldError{"amount", "too large"}
	}
	return int(d.IntPart()), nil
}

const maxAmount = math.MaxInt32

func parseVAT(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", FieldError{"vat", fmt.Sprintf("%q is not a number", raw)}
	}
	if d.IsNegative() {
		return "", FieldError{"vat", "must not be negative"}
	}
	return d.String(), nil
}

// parsePct truncates fractional rates and falls back to model.DefaultPct for
// blank or non-numeric input.
func parsePct(raw string) (int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return model.DefaultPct, nil
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return 0, FieldError{"pct", "must be between 0 and 100"}
	}
	return int(d.IntPart()), nil
}
