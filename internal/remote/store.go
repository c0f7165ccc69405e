package remote

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"

	"github.com/billed-dev/billed/internal/model"
	"github.com/billed-dev/billed/internal/receipt"
)

// Store is the remote persistence service for bills.
type Store interface {
	// Create uploads the form (owner email and optional receipt) and opens a
	// bill record.
	Create(ctx context.Context, req CreateRequest) (CreateResult, error)

	// Update replaces the fields of the record named by req.Selector.
	Update(ctx context.Context, req UpdateRequest) (model.Bill, error)

	// List returns the bills visible to the current user.
	List(ctx context.Context) ([]model.Bill, error)
}

// Headers are per-request transport hints.
type Headers struct {
	// NoContentType leaves the content type to the body encoding instead of
	// the store's JSON default. Multipart uploads need it.
	NoContentType bool
}

// Form is the multipart payload of a create call.
type Form struct {
	Email string
	File  *receipt.File
}

// Encode renders the form as a multipart body and returns its content type.
func (f *Form) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("email", f.Email); err != nil {
		return nil, "", fmt.Errorf("writing email field: %w", err)
	}
	if f.File != nil {
		part, err := mw.CreateFormFile("file", f.File.Name)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part: %w", err)
		}
		if _, err := part.Write(f.File.Data); err != nil {
			return nil, "", fmt.Errorf("writing file part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// CreateRequest is the input of Store.Create.
type CreateRequest struct {
	Data    *Form
	Headers Headers
}

// CreateResult is what the store returns for a created record.
type CreateResult struct {
	ID       string `json:"id"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	Key      string `json:"key"`
}

// UpdateRequest is the input of Store.Update. Data is a JSON-encoded Bill.
type UpdateRequest struct {
	Data     []byte
	Selector string
}
