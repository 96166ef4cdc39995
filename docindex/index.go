/*
	docindex package defines types that outline the behavior of the
	full-text document index stores used to answer search queries over
	the text extracted from archived documents.
*/

package docindex

import (
	"time"

	"github.com/google/uuid"
)

// Indexer should be implemented by objects that can index and search
// documents archived by the crawler component.
type Indexer interface {
	// Index adds a new document or updates an existing index entry
	// in case of an existing document.
	Index(doc *Document) error

	// FindByDocID looks up an index entry by its catalog document ID.
	FindByDocID(docID uuid.UUID) (*Document, error)

	// Search performs a look up based on query and returns a result
	// iterator if successful or an error otherwise.
	Search(q Query) (Iterator, error)
}

// Iterator should be implemented by objects that can paginate search
// results.
type Iterator interface {
	// Next loads the next item, returns false when no more items
	// are available or when an error occurs.
	Next() bool

	// Error returns the last error encountered by the iterator.
	Error() error

	// Close releases any resources allocated to the iterator.
	Close() error

	// Document returns the current document from the result set.
	Document() *Document

	// TotalCount returns the approximated total number of search results.
	TotalCount() uint64
}

// Document defines an archived document whose extracted text has been
// successfully indexed.
type Document struct {
	// ID of the catalog document row this index entry mirrors.
	DocID uuid.UUID

	// ID of the product the document belongs to.
	ProductID uuid.UUID

	// URL pointing to the source of the document content.
	URL string

	// Extracted plain-text content of the document.
	Content string

	// Last time the document was indexed.
	IndexedAt time.Time
}

// QueryType represents an integer value for a specific query.
type QueryType uint8

const (
	// QueryTypeMatch queries for results that match parts
	// of the query expression.
	QueryTypeMatch QueryType = iota

	// QueryTypePhrase queries for results that exactly match the
	// entire query expression / phrase (full-text search).
	QueryTypePhrase
)

// Query defines properties for a search query.
type Query struct {
	// Defines how the indexer interprets the search expression.
	Type QueryType
	// Value to search for.
	Expression string
	// Determines the cursor value for the indexer / pagination.
	Offset uint64
}
