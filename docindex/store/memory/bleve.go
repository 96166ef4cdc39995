package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/search/query"
	"github.com/google/uuid"

	"github.com/mycok/fincrawl/docindex"
)

// Size of each page of results that is cached locally by the iterator.
const batchSize = 10

// Static and compile-time check to ensure InMemoryIndex implements Indexer.
var _ docindex.Indexer = (*InMemoryIndex)(nil)

type bleveDoc struct {
	Content string
}

// InMemoryIndex is an Indexer implementation that uses a bleve instance
// to index / catalogue and search documents but saves its index in memory.
type InMemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]*docindex.Document
	idx  bleve.Index
}

// NewInMemoryIndex instantiates and returns a document indexer that
// uses an in-memory bleve instance to index documents.
func NewInMemoryIndex() (*InMemoryIndex, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, err
	}

	return &InMemoryIndex{
		idx:  idx,
		docs: make(map[string]*docindex.Document),
	}, nil
}

// Close releases / frees any previously allocated resources.
func (s *InMemoryIndex) Close() error {
	return s.idx.Close()
}

// Index adds a new document or updates an existing index entry
// in case of an existing document.
func (s *InMemoryIndex) Index(doc *docindex.Document) error {
	if doc.DocID == uuid.Nil {
		return fmt.Errorf("index: %w", docindex.ErrMissingDocID)
	}

	doc.IndexedAt = time.Now()
	dCopy := copyDoc(doc)
	key := dCopy.DocID.String()

	// Acquire a general lock to avoid data races while mutating index data.
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.idx.Index(key, makeBleveDoc(dCopy)); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	s.docs[key] = dCopy

	return nil
}

// FindByDocID looks up an index entry by its catalog document ID.
func (s *InMemoryIndex) FindByDocID(docID uuid.UUID) (*docindex.Document, error) {
	// Read lock allows other processes or goroutines to perform reads by
	// concurrently acquiring other read locks.
	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc, exists := s.docs[docID.String()]; exists {
		return copyDoc(doc), nil
	}

	return nil, fmt.Errorf("find by doc ID: %w", docindex.ErrNotFound)
}

// Search performs a look up based on query and returns a result
// iterator if successful or an error otherwise.
func (s *InMemoryIndex) Search(q docindex.Query) (docindex.Iterator, error) {
	var bleveQuery query.Query

	switch q.Type {
	case docindex.QueryTypePhrase:
		bleveQuery = bleve.NewMatchPhraseQuery(q.Expression)
	default:
		bleveQuery = bleve.NewMatchQuery(q.Expression)
	}

	searchReq := bleve.NewSearchRequest(bleveQuery)
	searchReq.SortBy([]string{"-_score"})
	searchReq.Size = batchSize
	searchReq.From = int(q.Offset)

	sr, err := s.idx.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return &docIterator{
		idx:       s,
		searchReq: searchReq,
		searchRes: sr,
		cumIdx:    q.Offset,
	}, nil
}

func copyDoc(doc *docindex.Document) *docindex.Document {
	dCopy := new(docindex.Document)
	*dCopy = *doc

	return dCopy
}

func makeBleveDoc(doc *docindex.Document) bleveDoc {
	return bleveDoc{
		Content: doc.Content,
	}
}
