package billslist

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are the representations the store has been seen to return.
var dateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// NormalizeDate rewrites raw as YYYY-MM-DD.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), nil
		}
	}
	return raw, fmt.Errorf("unrecognized date %q", raw)
}
