// Package remote defines the bill store the client depends on and an HTTP
// adapter for it.
//
// The store exposes three operations: Create uploads a receipt and opens a
// bill record, Update replaces a record's fields, and List returns the
// records visible to the caller. Rejections carry messages of the form
// "Erreur <status>"; Classify relies on those tokens, so any adapter must
// keep producing them.
package remote
