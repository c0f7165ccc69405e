package remote

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/billed-dev/billed/internal/receipt"
)

// Kind classifies a failure for display.
type Kind string

const (
	KindInvalidExtension Kind = "invalid-extension"
	KindNotFound         Kind = "not-found"
	KindServerError      Kind = "server-error"
	KindUnauthorized     Kind = "unauthorized"
	KindUnknown          Kind = "unknown"
)

// Error is a rejection from the remote store.
// Message always embeds the status token, e.g. "Erreur 404".
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds the conventional rejection for an HTTP status.
func NewError(status int) *Error {
	return &Error{Status: status, Message: fmt.Sprintf("Erreur %d", status)}
}

var statusToken = regexp.MustCompile(`Erreur\s+([1-5][0-9]{2})\b`)

// Classify maps err to a Kind. A structured *Error decides by its status;
// other errors are matched on the "Erreur NNN" token of the message.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, receipt.ErrInvalidExtension) {
		return KindInvalidExtension
	}
	var re *Error
	if errors.As(err, &re) && re.Status != 0 {
		return kindForStatus(re.Status)
	}
	for _, m := range statusToken.FindAllStringSubmatch(err.Error(), -1) {
		code, _ := strconv.Atoi(m[1])
		if k := kindForStatus(code); k != KindUnknown {
			return k
		}
	}
	return KindUnknown
}

func kindForStatus(code int) Kind {
	switch {
	case code == 401:
		return KindUnauthorized
	case code == 404:
		return KindNotFound
	case code >= 500 && code <= 599:
		return KindServerError
	}
	return KindUnknown
}

// UserMessage returns the text shown to the user for a classified failure.
func UserMessage(kind Kind, err error) string {
	switch kind {
	case KindNotFound:
		return "Erreur 404"
	case KindServerError:
		return "Erreur 500"
	case KindUnauthorized:
		return "Erreur 401"
	case KindInvalidExtension:
		return "Seuls les fichiers jpg, jpeg et png sont acceptés"
	}
	if err == nil {
		return "Erreur"
	}
	return err.Error()
}
