/*
	catalog package defines the model types for crawled financial
	institutions, their products and the archived documents, together
	with the behavior expected of catalog data stores.
*/

package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Store should be implemented by catalog data stores / types.
type Store interface {
	// UpsertInstitution creates a new or updates an existing institution
	// identified by its unique slug. The ID field of the provided
	// institution is populated on return.
	UpsertInstitution(inst *Institution) error

	// Institutions returns all known institutions.
	Institutions() ([]*Institution, error)

	// FindInstitutionBySlug performs an institution lookup by slug.
	FindInstitutionBySlug(slug string) (*Institution, error)

	// UpsertProduct creates a new or updates an existing product
	// identified by the unique (institution ID, url) pair. The last-seen
	// timestamp is always refreshed to the provided value while an
	// existing title is never replaced. On return the ID and Title fields
	// of the provided product reflect the stored row.
	UpsertProduct(product *Product) error

	// SetProductTitle assigns a title to the product with the specified
	// ID only if the product has no title yet (first write wins).
	SetProductTitle(id uuid.UUID, title string) error

	// FindProduct performs a product lookup by id.
	FindProduct(id uuid.UUID) (*Product, error)

	// ProductsByInstitution returns all products belonging to the
	// institution with the specified ID.
	ProductsByInstitution(institutionID uuid.UUID) ([]*Product, error)

	// InsertDocument records a newly archived document. Attempting to
	// insert a document whose (product ID, url) pair is already recorded
	// yields ErrExists.
	InsertDocument(doc *Document) error

	// HasDocument reports whether a document has already been recorded
	// for the specified (product ID, url) pair.
	HasDocument(productID uuid.UUID, url string) (bool, error)

	// FindDocument performs a document lookup by id.
	FindDocument(id uuid.UUID) (*Document, error)

	// DocumentsByProduct returns all documents belonging to the product
	// with the specified ID.
	DocumentsByProduct(productID uuid.UUID) ([]*Document, error)

	// Documents returns an iterator over every recorded document.
	Documents() (DocumentIterator, error)

	// SearchDocuments performs a case-insensitive substring scan over
	// the extracted document text and returns up to limit matches. It
	// serves as the degraded search path when no full-text index is
	// reachable.
	SearchDocuments(term string, limit int) ([]*Document, error)
}

// DocumentIterator is implemented by types that iterate documents.
type DocumentIterator interface {
	// Next loads the next document, returns false when no more documents
	// are available or when an error occurs.
	Next() bool

	// Error returns the last error encountered by the iterator.
	Error() error

	// Close releases any resources allocated to the iterator.
	Close() error

	// Document returns the currently fetched document object.
	Document() *Document
}

// Institution represents a financial entity being crawled. it serves as
// a model / schema object.
type Institution struct {
	ID       uuid.UUID // Institution unique identifier
	Slug     string    // Unique, URL-safe institution identifier
	Name     string    // Display name
	Country  string    // Optional ISO country hint
	Currency string    // Optional currency hint
}

// Product represents a financial-product landing page that belongs to
// exactly one institution.
type Product struct {
	ID            uuid.UUID // Product unique identifier
	InstitutionID uuid.UUID // Owning institution ID
	URL           string    // Source page URL, unique per institution
	Slug          string    // Slug derived from the source URL
	Title         string    // First extracted page title, write-once
	LastSeen      time.Time // Last crawl pass that discovered this product
}

// Document represents an archived PDF artifact referenced from a
// product page, along with its extracted text.
type Document struct {
	ID        uuid.UUID // Document unique identifier
	ProductID uuid.UUID // Owning product ID
	URL       string    // Source document URL, unique per product
	LocalPath string    // Path of the downloaded artifact on disk
	Text      string    // Extracted plain-text content
	Version   int       // Reserved version counter, currently always 1
	ScrapedAt time.Time // Archival timestamp
	IsActive  bool      // Soft-retirement flag, currently always true
}
