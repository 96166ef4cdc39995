package pg

import (
	"database/sql"
	"fmt"

	"github.com/mycok/fincrawl/catalog"
)

// Static and compile-time check to ensure documentIterator implements
// catalog.DocumentIterator interface.
var _ catalog.DocumentIterator = (*documentIterator)(nil)

// documentIterator is a catalog.DocumentIterator implementation for the
// postgres store. It wraps the [database/sql] Rows type that serves as
// an iterator for the returned query data.
type documentIterator struct {
	rows    *sql.Rows
	lastErr error
	doc     *catalog.Document
}

// Next loads the next document, returns false when no more documents
// are available or when an error occurs.
func (i *documentIterator) Next() bool {
	// Check if an error occurred during the most recent [rows.Scan]
	// operation or if there are no more row data to return.
	if i.lastErr != nil || !i.rows.Next() {
		return false
	}

	doc := new(catalog.Document)
	if i.lastErr = i.rows.Scan(
		&doc.ID, &doc.ProductID, &doc.URL, &doc.LocalPath, &doc.Text,
		&doc.Version, &doc.ScrapedAt, &doc.IsActive,
	); i.lastErr != nil {
		return false
	}

	// Re-assign this field to a .UTC time value to cater for cases
	// where the retrieved time for the field is reverted back to a non
	// UTC value during the Scan / parsing process.
	doc.ScrapedAt = doc.ScrapedAt.UTC()
	i.doc = doc

	return true
}

// Error returns the last error encountered by the iterator.
func (i *documentIterator) Error() error {
	return i.lastErr
}

// Close releases any resources allocated to the iterator.
func (i *documentIterator) Close() error {
	if err := i.rows.Close(); err != nil {
		return fmt.Errorf("document iterator: %w", err)
	}

	return nil
}

// Document returns the currently fetched document object.
func (i *documentIterator) Document() *catalog.Document {
	return i.doc
}
