// Package storage holds the errors shared by the BatchStore implementations.
package storage

import "errors"

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrDuplicateDocument = errors.New("document already committed")
)
