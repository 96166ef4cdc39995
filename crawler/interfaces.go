package crawler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mycok/fincrawl/catalog"
	"github.com/mycok/fincrawl/docindex"
)

// URLGetter should be implemented by objects that perform
// HTTP GET requests to fetch remote page and document data.
type URLGetter interface {
	Do(req *http.Request) (*http.Response, error)
}

// MiniCatalog should be implemented by objects that can record institutions,
// products and archived documents discovered by the crawler component.
type MiniCatalog interface {
	// UpsertInstitution creates a new or refreshes an existing institution.
	UpsertInstitution(inst *catalog.Institution) error

	// UpsertProduct creates a new or refreshes an existing product and
	// reports back its assigned ID and currently stored title.
	UpsertProduct(product *catalog.Product) error

	// SetProductTitle assigns a title to a product that has none yet.
	SetProductTitle(id uuid.UUID, title string) error

	// HasDocument reports whether a document with the given source URL has
	// already been archived for the specified product.
	HasDocument(productID uuid.UUID, url string) (bool, error)

	// InsertDocument archives a new document. Returns catalog.ErrExists
	// when the document has already been archived.
	InsertDocument(doc *catalog.Document) error
}

// MiniIndexer should be implemented by objects that can index documents
// archived by the crawler component.
type MiniIndexer interface {
	// Index adds a new document or updates an existing index entry
	// in case of an existing document.
	Index(doc *docindex.Document) error
}
