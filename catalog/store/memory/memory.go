package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mycok/fincrawl/catalog"
)

// Static and compile-time check to ensure InMemoryStore implements
// Store interface.
var _ catalog.Store = (*InMemoryStore)(nil)

// productKey uniquely identifies a product within an institution.
type productKey struct {
	institutionID uuid.UUID
	url           string
}

// documentKey uniquely identifies a document within a product.
type documentKey struct {
	productID uuid.UUID
	url       string
}

// InMemoryStore implements an in-memory catalog that can be concurrently
// accessed by multiple clients.
type InMemoryStore struct {
	mu               sync.RWMutex
	institutions     map[uuid.UUID]*catalog.Institution
	instSlugIndex    map[string]*catalog.Institution
	products         map[uuid.UUID]*catalog.Product
	productURLIndex  map[productKey]*catalog.Product
	documents        map[uuid.UUID]*catalog.Document
	documentURLIndex map[documentKey]*catalog.Document
	insertOrder      []uuid.UUID // Document insertion order for stable iteration.
}

// NewInMemoryStore creates a new in-memory catalog store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		institutions:     make(map[uuid.UUID]*catalog.Institution),
		instSlugIndex:    make(map[string]*catalog.Institution),
		products:         make(map[uuid.UUID]*catalog.Product),
		productURLIndex:  make(map[productKey]*catalog.Product),
		documents:        make(map[uuid.UUID]*catalog.Document),
		documentURLIndex: make(map[documentKey]*catalog.Document),
	}
}

// UpsertInstitution creates a new or updates an existing institution
// identified by its unique slug.
func (s *InMemoryStore) UpsertInstitution(inst *catalog.Institution) error {
	// Acquire a general lock to avoid data races while mutating catalog data.
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check if an institution with the same slug already exists. If so,
	// convert the operation into an update and keep the existing ID.
	if existing, exists := s.instSlugIndex[inst.Slug]; exists {
		inst.ID = existing.ID
		*existing = *inst

		return nil
	}

	// Try to assign a random ID to a new institution. in case the generated
	// ID is already used, run the ID generator until a unique ID is found.
	for {
		inst.ID = uuid.New()
		if _, exists := s.institutions[inst.ID]; !exists {
			break
		}
	}

	// Store a local copy to protect internal state from side effects
	// triggered outside this method.
	iCopy := new(catalog.Institution)
	*iCopy = *inst

	s.institutions[iCopy.ID] = iCopy
	s.instSlugIndex[iCopy.Slug] = iCopy

	return nil
}

// Institutions returns all known institutions sorted by slug.
func (s *InMemoryStore) Institutions() ([]*catalog.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*catalog.Institution, 0, len(s.institutions))
	for _, inst := range s.institutions {
		iCopy := new(catalog.Institution)
		*iCopy = *inst

		list = append(list, iCopy)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Slug < list[j].Slug })

	return list, nil
}

// FindInstitutionBySlug performs an institution lookup by slug.
func (s *InMemoryStore) FindInstitutionBySlug(slug string) (*catalog.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inst, exists := s.instSlugIndex[slug]; exists {
		iCopy := new(catalog.Institution)
		*iCopy = *inst

		return iCopy, nil
	}

	return nil, fmt.Errorf("find institution by slug: %w", catalog.ErrNotFound)
}

// UpsertProduct creates a new or updates an existing product identified
// by the unique (institution ID, url) pair. An existing title is
// preserved while the last-seen timestamp is always refreshed.
func (s *InMemoryStore) UpsertProduct(product *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.institutions[product.InstitutionID]; !exists {
		return fmt.Errorf("upsert product: %w", catalog.ErrUnknownOwner)
	}

	key := productKey{product.InstitutionID, product.URL}
	if existing, exists := s.productURLIndex[key]; exists {
		existing.LastSeen = product.LastSeen.UTC()

		product.ID = existing.ID
		product.Title = existing.Title

		return nil
	}

	for {
		product.ID = uuid.New()
		if _, exists := s.products[product.ID]; !exists {
			break
		}
	}

	product.LastSeen = product.LastSeen.UTC()

	pCopy := new(catalog.Product)
	*pCopy = *product

	s.products[pCopy.ID] = pCopy
	s.productURLIndex[key] = pCopy

	return nil
}

// SetProductTitle assigns a title to the product with the specified ID
// only if the product has no title yet.
func (s *InMemoryStore) SetProductTitle(id uuid.UUID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return fmt.Errorf("set product title: %w", catalog.ErrNotFound)
	}

	if product.Title == "" {
		product.Title = title
	}

	return nil
}

// FindProduct performs a product lookup by id.
func (s *InMemoryStore) FindProduct(id uuid.UUID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if product, exists := s.products[id]; exists {
		pCopy := new(catalog.Product)
		*pCopy = *product

		return pCopy, nil
	}

	return nil, fmt.Errorf("find product: %w", catalog.ErrNotFound)
}

// ProductsByInstitution returns all products belonging to the
// institution with the specified ID sorted by URL.
func (s *InMemoryStore) ProductsByInstitution(institutionID uuid.UUID) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*catalog.Product
	for _, product := range s.products {
		if product.InstitutionID != institutionID {
			continue
		}

		pCopy := new(catalog.Product)
		*pCopy = *product

		list = append(list, pCopy)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].URL < list[j].URL })

	return list, nil
}

// InsertDocument records a newly archived document. Inserting an
// already recorded (product ID, url) pair yields ErrExists.
func (s *InMemoryStore) InsertDocument(doc *catalog.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[doc.ProductID]; !exists {
		return fmt.Errorf("insert document: %w", catalog.ErrUnknownOwner)
	}

	key := documentKey{doc.ProductID, doc.URL}
	if _, exists := s.documentURLIndex[key]; exists {
		return fmt.Errorf("insert document: %w", catalog.ErrExists)
	}

	for {
		doc.ID = uuid.New()
		if _, exists := s.documents[doc.ID]; !exists {
			break
		}
	}

	if doc.Version == 0 {
		doc.Version = 1
	}
	doc.IsActive = true
	doc.ScrapedAt = doc.ScrapedAt.UTC()

	dCopy := new(catalog.Document)
	*dCopy = *doc

	s.documents[dCopy.ID] = dCopy
	s.documentURLIndex[key] = dCopy
	s.insertOrder = append(s.insertOrder, dCopy.ID)

	return nil
}

// HasDocument reports whether a document has already been recorded for
// the specified (product ID, url) pair.
func (s *InMemoryStore) HasDocument(productID uuid.UUID, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.documentURLIndex[documentKey{productID, url}]

	return exists, nil
}

// FindDocument performs a document lookup by id.
func (s *InMemoryStore) FindDocument(id uuid.UUID) (*catalog.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc, exists := s.documents[id]; exists {
		dCopy := new(catalog.Document)
		*dCopy = *doc

		return dCopy, nil
	}

	return nil, fmt.Errorf("find document: %w", catalog.ErrNotFound)
}

// DocumentsByProduct returns all documents belonging to the product
// with the specified ID in insertion order.
func (s *InMemoryStore) DocumentsByProduct(productID uuid.UUID) ([]*catalog.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*catalog.Document
	for _, id := range s.insertOrder {
		doc := s.documents[id]
		if doc.ProductID != productID {
			continue
		}

		dCopy := new(catalog.Document)
		*dCopy = *doc

		list = append(list, dCopy)
	}

	return list, nil
}

// Documents returns an iterator over every recorded document in
// insertion order.
func (s *InMemoryStore) Documents() (catalog.DocumentIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*catalog.Document, 0, len(s.insertOrder))
	for _, id := range s.insertOrder {
		dCopy := new(catalog.Document)
		*dCopy = *s.documents[id]

		list = append(list, dCopy)
	}

	return &documentIterator{docs: list}, nil
}

// SearchDocuments performs a case-insensitive substring scan over the
// extracted document text and returns up to limit matches.
func (s *InMemoryStore) SearchDocuments(term string, limit int) ([]*catalog.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*catalog.Document
	loweredTerm := strings.ToLower(term)

	for _, id := range s.insertOrder {
		if limit > 0 && len(list) >= limit {
			break
		}

		doc := s.documents[id]
		if !strings.Contains(strings.ToLower(doc.Text), loweredTerm) {
			continue
		}

		dCopy := new(catalog.Document)
		*dCopy = *doc

		list = append(list, dCopy)
	}

	return list, nil
}
