// Package receipt validates and holds receipt files staged for upload.
package receipt

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidExtension is returned for files that are not jpg, jpeg or png images.
var ErrInvalidExtension = errors.New("invalid receipt extension")

// allowedExtensions are compared against the lowercased file extension.
var allowedExtensions = []string{".jpg", ".jpeg", ".png"}

// File is a receipt chosen by the user. Only Name is inspected by Validate.
type File struct {
	Name string
	Data []byte
}

// Validate checks fileName's extension against the allow-list.
func Validate(fileName string) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidExtension, fileName)
}
