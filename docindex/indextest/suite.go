package indextest

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/fincrawl/docindex"
)

// BaseSuite defines a set of re-usable index related tests that can
// be executed against any concrete type that implements the
// docindex.Indexer interface.
type BaseSuite struct {
	idx docindex.Indexer
}

// SetIndex sets BaseSuite's index field.
func (s *BaseSuite) SetIndex(index docindex.Indexer) {
	s.idx = index
}

// TestIndexingDocument verifies the indexing logic for new and existing
// documents.
func (s *BaseSuite) TestIndexingDocument(c *check.C) {
	// Insert a new document.
	doc := &docindex.Document{
		DocID:     uuid.New(),
		ProductID: uuid.New(),
		URL:       "https://example.com/statements/terms.pdf",
		Content:   "This should be the extracted text of the document",
		IndexedAt: time.Now().Add(-12 * time.Hour).UTC(),
	}

	err := s.idx.Index(doc)
	c.Assert(
		err, check.IsNil,
		check.Commentf("++++Index insert++++: %v", err),
	)

	// Re-index the same document with refreshed content.
	updatedDoc := &docindex.Document{
		DocID:     doc.DocID,
		ProductID: doc.ProductID,
		URL:       doc.URL,
		Content:   "This is the re-extracted text of the document",
		IndexedAt: time.Now().UTC(),
	}

	err = s.idx.Index(updatedDoc)
	c.Assert(
		err, check.IsNil,
		check.Commentf("++++Index update++++: %v", err),
	)

	// Query the index to verify the update process.
	d, err := s.idx.FindByDocID(updatedDoc.DocID)
	c.Assert(err, check.IsNil)
	c.Assert(d, check.DeepEquals, updatedDoc)

	// Insert a document without an ID.
	docWithoutID := &docindex.Document{
		URL: "https://example.com/statements/terms.pdf",
	}

	err = s.idx.Index(docWithoutID)
	c.Assert(
		errors.Is(err, docindex.ErrMissingDocID), check.Equals, true,
		check.Commentf("++++Index insert++++: %v", err),
	)
}

// TestFindByDocID verifies the document lookup logic.
func (s *BaseSuite) TestFindByDocID(c *check.C) {
	doc := &docindex.Document{
		DocID:     uuid.New(),
		ProductID: uuid.New(),
		URL:       "https://example.com/statements/terms.pdf",
		Content:   "This should be the extracted text of the document",
		IndexedAt: time.Now().Add(-12 * time.Hour).UTC(),
	}

	err := s.idx.Index(doc)
	c.Assert(
		err, check.IsNil,
		check.Commentf("++++Index insert++++: %v", err),
	)

	// Perform a doc lookup to verify the insert logic.
	retrievedDoc, err := s.idx.FindByDocID(doc.DocID)
	c.Assert(err, check.IsNil)
	c.Assert(
		retrievedDoc, check.DeepEquals, doc,
		check.Commentf("document returned by FindByDocID does not match the inserted document"),
	)

	// Perform a doc lookup for a non existing id.
	_, err = s.idx.FindByDocID(uuid.New())
	c.Assert(errors.Is(err, docindex.ErrNotFound), check.Equals, true)
}

// TestPhraseSearch verifies the document search logic when searching for
// exact phrases.
func (s *BaseSuite) TestPhraseSearch(c *check.C) {
	var (
		numOfDocs   = 50
		expectedIDs = make(map[uuid.UUID]bool)
	)

	for i := 0; i < numOfDocs; i++ {
		id := uuid.New()
		doc := &docindex.Document{
			DocID:     id,
			ProductID: uuid.New(),
			URL:       fmt.Sprintf("https://example.com/docs/%d.pdf", i),
			Content:   "This should be the extracted text of the document",
		}

		if i%5 == 0 {
			doc.Content = "Annual fee disclosure statement"
			expectedIDs[id] = true
		}

		err := s.idx.Index(doc)
		c.Assert(
			err, check.IsNil,
			check.Commentf("++++Index insert++++: %v", err),
		)
	}

	it, err := s.idx.Search(docindex.Query{
		Type:       docindex.QueryTypePhrase,
		Expression: "Annual fee disclosure statement",
	})
	c.Assert(
		err, check.IsNil,
		check.Commentf("++++Search full-text / phrase++++: %v", err),
	)
	c.Assert(iterateDocs(c, it), check.DeepEquals, expectedIDs)
}

// TestMatchKeywordSearch verifies the document search logic when searching
// for keyword matches. The number of matching documents exceeds the result
// page size so this test also exercises the iterator paging logic.
func (s *BaseSuite) TestMatchKeywordSearch(c *check.C) {
	var (
		numOfDocs   = 50
		expectedIDs = make(map[uuid.UUID]bool)
	)

	for i := 0; i < numOfDocs; i++ {
		id := uuid.New()
		doc := &docindex.Document{
			DocID:     id,
			ProductID: uuid.New(),
			URL:       fmt.Sprintf("https://example.com/docs/%d.pdf", i),
			Content:   "This should be the extracted text of the document",
		}

		if i%2 == 0 {
			doc.Content = "Annual fee disclosure statement"
			expectedIDs[id] = true
		}

		err := s.idx.Index(doc)
		c.Assert(
			err, check.IsNil,
			check.Commentf("++++Index insert++++: %v", err),
		)
	}

	it, err := s.idx.Search(docindex.Query{
		Type:       docindex.QueryTypeMatch,
		Expression: "disclosure",
	})
	c.Assert(
		err, check.IsNil,
		check.Commentf("++++Search keyword match++++: %v", err),
	)
	c.Assert(iterateDocs(c, it), check.DeepEquals, expectedIDs)
}

// TestMatchKeywordSearchWithOffset verifies the document search logic when
// searching for keyword matches and skipping some results.
func (s *BaseSuite) TestMatchKeywordSearchWithOffset(c *check.C) {
	numOfDocs := 50

	for i := 0; i < numOfDocs; i++ {
		doc := &docindex.Document{
			DocID:     uuid.New(),
			ProductID: uuid.New(),
			URL:       fmt.Sprintf("https://example.com/docs/%d.pdf", i),
			Content:   "This should be the extracted text of the document",
		}

		err := s.idx.Index(doc)
		c.Assert(
			err, check.IsNil,
			check.Commentf("++++Index insert++++: %v", err),
		)
	}

	it, err := s.idx.Search(docindex.Query{
		Type:       docindex.QueryTypeMatch,
		Expression: "extracted",
		Offset:     20,
	})
	c.Assert(
		err, check.IsNil,
		check.Commentf("++++Search keyword match++++: %v", err),
	)
	c.Assert(iterateDocs(c, it), check.HasLen, numOfDocs-20)

	// Search with an offset above the total number of results.
	it, err = s.idx.Search(docindex.Query{
		Type:       docindex.QueryTypeMatch,
		Expression: "extracted",
		Offset:     200,
	})

	c.Assert(err, check.IsNil)
	c.Assert(iterateDocs(c, it), check.HasLen, 0)
}

// TestSearchWithNoResults verifies that a query matching no documents
// yields an empty result set rather than an error.
func (s *BaseSuite) TestSearchWithNoResults(c *check.C) {
	doc := &docindex.Document{
		DocID:     uuid.New(),
		ProductID: uuid.New(),
		URL:       "https://example.com/statements/terms.pdf",
		Content:   "This should be the extracted text of the document",
	}

	err := s.idx.Index(doc)
	c.Assert(
		err, check.IsNil,
		check.Commentf("++++Index insert++++: %v", err),
	)

	it, err := s.idx.Search(docindex.Query{
		Type:       docindex.QueryTypeMatch,
		Expression: "nosuchterm",
	})
	c.Assert(err, check.IsNil)
	c.Assert(iterateDocs(c, it), check.HasLen, 0)
	c.Assert(it.TotalCount(), check.Equals, uint64(0))
}

func iterateDocs(c *check.C, it docindex.Iterator) map[uuid.UUID]bool {
	seen := make(map[uuid.UUID]bool)
	for it.Next() {
		seen[it.Document().DocID] = true
	}

	c.Assert(it.Error(), check.IsNil)
	c.Assert(it.Close(), check.IsNil)

	return seen
}
