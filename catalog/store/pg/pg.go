package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mycok/fincrawl/catalog"
)

var (
	upsertInstitutionQuery = `
					INSERT INTO institutions (slug, name, country, currency)
					VALUES ($1, $2, $3, $4)
					ON CONFLICT (slug)
					DO UPDATE SET name=EXCLUDED.name, country=EXCLUDED.country,
						currency=EXCLUDED.currency
					RETURNING id
					`
	listInstitutionsQuery = `
					SELECT id, slug, name, country, currency FROM institutions
					ORDER BY slug
					`
	findInstitutionQuery = `
					SELECT id, slug, name, country, currency FROM institutions
					WHERE slug=$1
					`

	upsertProductQuery = `
					INSERT INTO products (institution_id, url, slug, title, last_seen)
					VALUES ($1, $2, $3, '', $4)
					ON CONFLICT (institution_id, url)
					DO UPDATE SET last_seen=EXCLUDED.last_seen
					RETURNING id, title, last_seen
					`
	setProductTitleQuery = "UPDATE products SET title=$2 WHERE id=$1 AND title=''"

	findProductQuery = `
					SELECT id, institution_id, url, slug, title, last_seen
					FROM products WHERE id=$1
					`
	productsByInstitutionQuery = `
					SELECT id, institution_id, url, slug, title, last_seen
					FROM products WHERE institution_id=$1 ORDER BY url
					`

	insertDocumentQuery = `
					INSERT INTO documents
						(product_id, url, local_path, text, version, scraped_at, is_active)
					VALUES ($1, $2, $3, $4, 1, $5, TRUE)
					RETURNING id, version, is_active
					`
	hasDocumentQuery = `
					SELECT EXISTS (
						SELECT 1 FROM documents WHERE product_id=$1 AND url=$2
					)
					`
	findDocumentQuery = `
					SELECT id, product_id, url, local_path, text, version,
						scraped_at, is_active
					FROM documents WHERE id=$1
					`
	documentsByProductQuery = `
					SELECT id, product_id, url, local_path, text, version,
						scraped_at, is_active
					FROM documents WHERE product_id=$1 ORDER BY scraped_at, url
					`
	allDocumentsQuery = `
					SELECT id, product_id, url, local_path, text, version,
						scraped_at, is_active
					FROM documents ORDER BY scraped_at, url
					`
	searchDocumentsQuery = `
					SELECT id, product_id, url, local_path, text, version,
						scraped_at, is_active
					FROM documents WHERE text ILIKE '%' || $1 || '%'
					ORDER BY scraped_at DESC LIMIT $2
					`
)

// Timeout applied to individual catalog statements.
const opTimeout = 5 * time.Second

// Static and compile-time check to ensure PostgresStore implements
// Store interface.
var _ catalog.Store = (*PostgresStore)(nil)

// PostgresStore implements a persistent catalog of institutions,
// products and documents using a PostgreSQL instance.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a PostgresStore instance.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{db}, nil
}

// Close terminates the connection to the postgres instance.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// UpsertInstitution creates a new or updates an existing institution
// identified by its unique slug.
func (s *PostgresStore) UpsertInstitution(inst *catalog.Institution) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	err := s.db.QueryRowContext(
		ctx, upsertInstitutionQuery, inst.Slug, inst.Name, inst.Country,
		inst.Currency,
	).Scan(&inst.ID)
	if err != nil {
		return fmt.Errorf("upsert institution: %w", err)
	}

	return nil
}

// Institutions returns all known institutions sorted by slug.
func (s *PostgresStore) Institutions() ([]*catalog.Institution, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, listInstitutionsQuery)
	if err != nil {
		return nil, fmt.Errorf("institutions: %w", err)
	}
	defer rows.Close()

	var list []*catalog.Institution
	for rows.Next() {
		inst := new(catalog.Institution)
		if err := rows.Scan(
			&inst.ID, &inst.Slug, &inst.Name, &inst.Country, &inst.Currency,
		); err != nil {
			return nil, fmt.Errorf("institutions: %w", err)
		}

		list = append(list, inst)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("institutions: %w", err)
	}

	return list, nil
}

// FindInstitutionBySlug performs an institution lookup by slug.
func (s *PostgresStore) FindInstitutionBySlug(slug string) (*catalog.Institution, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	inst := new(catalog.Institution)

	err := s.db.QueryRowContext(ctx, findInstitutionQuery, slug).Scan(
		&inst.ID, &inst.Slug, &inst.Name, &inst.Country, &inst.Currency,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("find institution by slug: %w", catalog.ErrNotFound)
		}

		return nil, fmt.Errorf("find institution by slug: %w", err)
	}

	return inst, nil
}

// UpsertProduct creates a new or updates an existing product identified
// by the unique (institution ID, url) pair. The row's uniqueness
// constraint is the source of truth: a single conditional write avoids
// races between an existence check and the insert. An existing title is
// preserved while the last-seen timestamp is always refreshed.
func (s *PostgresStore) UpsertProduct(product *catalog.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	err := s.db.QueryRowContext(
		ctx, upsertProductQuery, product.InstitutionID, product.URL,
		product.Slug, product.LastSeen.UTC(),
	).Scan(&product.ID, &product.Title, &product.LastSeen)
	if err != nil {
		if isForeignKeyViolationError(err) {
			err = catalog.ErrUnknownOwner
		}

		return fmt.Errorf("upsert product: %w", err)
	}

	product.LastSeen = product.LastSeen.UTC()

	return nil
}

// SetProductTitle assigns a title to the product with the specified ID
// only if the product has no title yet.
func (s *PostgresStore) SetProductTitle(id uuid.UUID, title string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, setProductTitleQuery, id, title); err != nil {
		return fmt.Errorf("set product title: %w", err)
	}

	return nil
}

// FindProduct performs a product lookup by id.
func (s *PostgresStore) FindProduct(id uuid.UUID) (*catalog.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	product := new(catalog.Product)

	err := s.db.QueryRowContext(ctx, findProductQuery, id).Scan(
		&product.ID, &product.InstitutionID, &product.URL, &product.Slug,
		&product.Title, &product.LastSeen,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("find product: %w", catalog.ErrNotFound)
		}

		return nil, fmt.Errorf("find product: %w", err)
	}

	product.LastSeen = product.LastSeen.UTC()

	return product, nil
}

// ProductsByInstitution returns all products belonging to the
// institution with the specified ID sorted by URL.
func (s *PostgresStore) ProductsByInstitution(institutionID uuid.UUID) ([]*catalog.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, productsByInstitutionQuery, institutionID)
	if err != nil {
		return nil, fmt.Errorf("products by institution: %w", err)
	}
	defer rows.Close()

	var list []*catalog.Product
	for rows.Next() {
		product := new(catalog.Product)
		if err := rows.Scan(
			&product.ID, &product.InstitutionID, &product.URL, &product.Slug,
			&product.Title, &product.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("products by institution: %w", err)
		}

		product.LastSeen = product.LastSeen.UTC()
		list = append(list, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("products by institution: %w", err)
	}

	return list, nil
}

// InsertDocument records a newly archived document. Inserting an
// already recorded (product ID, url) pair yields ErrExists.
func (s *PostgresStore) InsertDocument(doc *catalog.Document) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	err := s.db.QueryRowContext(
		ctx, insertDocumentQuery, doc.ProductID, doc.URL, doc.LocalPath,
		doc.Text, doc.ScrapedAt.UTC(),
	).Scan(&doc.ID, &doc.Version, &doc.IsActive)
	if err != nil {
		switch {
		case isUniqueViolationError(err):
			err = catalog.ErrExists
		case isForeignKeyViolationError(err):
			err = catalog.ErrUnknownOwner
		}

		return fmt.Errorf("insert document: %w", err)
	}

	doc.ScrapedAt = doc.ScrapedAt.UTC()

	return nil
}

// HasDocument reports whether a document has already been recorded for
// the specified (product ID, url) pair.
func (s *PostgresStore) HasDocument(productID uuid.UUID, url string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var exists bool
	err := s.db.QueryRowContext(ctx, hasDocumentQuery, productID, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has document: %w", err)
	}

	return exists, nil
}

// FindDocument performs a document lookup by id.
func (s *PostgresStore) FindDocument(id uuid.UUID) (*catalog.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	doc := new(catalog.Document)

	err := s.db.QueryRowContext(ctx, findDocumentQuery, id).Scan(
		&doc.ID, &doc.ProductID, &doc.URL, &doc.LocalPath, &doc.Text,
		&doc.Version, &doc.ScrapedAt, &doc.IsActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("find document: %w", catalog.ErrNotFound)
		}

		return nil, fmt.Errorf("find document: %w", err)
	}

	doc.ScrapedAt = doc.ScrapedAt.UTC()

	return doc, nil
}

// DocumentsByProduct returns all documents belonging to the product
// with the specified ID.
func (s *PostgresStore) DocumentsByProduct(productID uuid.UUID) ([]*catalog.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, documentsByProductQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("documents by product: %w", err)
	}

	return scanDocuments(rows, "documents by product")
}

// Documents returns an iterator over every recorded document.
func (s *PostgresStore) Documents() (catalog.DocumentIterator, error) {
	rows, err := s.db.Query(allDocumentsQuery)
	if err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}

	return &documentIterator{rows: rows}, nil
}

// SearchDocuments performs a case-insensitive substring scan over the
// extracted document text and returns up to limit matches.
func (s *PostgresStore) SearchDocuments(term string, limit int) ([]*catalog.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, searchDocumentsQuery, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	return scanDocuments(rows, "search documents")
}

func scanDocuments(rows *sql.Rows, op string) ([]*catalog.Document, error) {
	defer rows.Close()

	var list []*catalog.Document
	for rows.Next() {
		doc := new(catalog.Document)
		if err := rows.Scan(
			&doc.ID, &doc.ProductID, &doc.URL, &doc.LocalPath, &doc.Text,
			&doc.Version, &doc.ScrapedAt, &doc.IsActive,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		doc.ScrapedAt = doc.ScrapedAt.UTC()
		list = append(list, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// isForeignKeyViolationError returns true if error is a foreign key
// constraint violation error.
func isForeignKeyViolationError(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}

	return pqErr.Code.Name() == "foreign_key_violation"
}

// isUniqueViolationError returns true if error is a unique constraint
// violation error.
func isUniqueViolationError(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}

	return pqErr.Code.Name() == "unique_violation"
}
