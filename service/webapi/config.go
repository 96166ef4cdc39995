package webapi

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/fincrawl/catalog"
	"github.com/mycok/fincrawl/docindex"
)

// Default number of results returned by the search endpoint when no limit
// is specified.
const defaultSearchLimit = 20

// CatalogAPI defines a minimum set of API methods for reading institutions,
// products and documents from the catalog store.
type CatalogAPI interface {
	// Institutions returns all recorded institutions.
	Institutions() ([]*catalog.Institution, error)

	// FindInstitutionBySlug looks up an institution by its slug.
	FindInstitutionBySlug(slug string) (*catalog.Institution, error)

	// ProductsByInstitution returns the products recorded for an
	// institution.
	ProductsByInstitution(institutionID uuid.UUID) ([]*catalog.Product, error)

	// FindProduct looks up a product by its ID.
	FindProduct(id uuid.UUID) (*catalog.Product, error)

	// DocumentsByProduct returns the documents archived for a product.
	DocumentsByProduct(productID uuid.UUID) ([]*catalog.Document, error)

	// FindDocument looks up a document by its ID.
	FindDocument(id uuid.UUID) (*catalog.Document, error)

	// Documents returns an iterator over all archived documents.
	Documents() (catalog.DocumentIterator, error)

	// SearchDocuments returns documents whose text contains the search
	// term.
	SearchDocuments(term string, limit int) ([]*catalog.Document, error)
}

// IndexAPI defines a minimum set of API methods for searching indexed
// documents.
type IndexAPI interface {
	// Index adds a new document or updates an existing index entry
	// in case of an existing document.
	Index(doc *docindex.Document) error

	// Search performs a look up based on query and returns a result
	// iterator if successful or an error otherwise.
	Search(q docindex.Query) (docindex.Iterator, error)
}

// Config defines configurations for the web API service.
type Config struct {
	// API for reading from the catalog data store.
	CatalogAPI CatalogAPI

	// API for searching the index store.
	IndexAPI IndexAPI

	// Address to listen on for incoming requests.
	ListenAddr string

	// Default number of results returned by the search endpoint. If not
	// specified, a default value of 20 results will be used instead.
	SearchLimit int

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.CatalogAPI == nil {
		err = multierror.Append(err, fmt.Errorf("catalog API not provided"))
	}

	if config.IndexAPI == nil {
		err = multierror.Append(err, fmt.Errorf("index API not provided"))
	}

	if config.ListenAddr == "" {
		err = multierror.Append(err, fmt.Errorf("listen address not provided"))
	}

	if config.SearchLimit <= 0 {
		config.SearchLimit = defaultSearchLimit
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
