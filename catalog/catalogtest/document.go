package catalogtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/fincrawl/catalog"
)

func (s *BaseSuite) mustUpsertProduct(c *check.C, instSlug, url string) *catalog.Product {
	inst := s.mustUpsertInstitution(c, instSlug)

	product := &catalog.Product{
		InstitutionID: inst.ID,
		URL:           url,
		Slug:          "product",
		LastSeen:      time.Now().UTC(),
	}
	c.Assert(s.s.UpsertProduct(product), check.IsNil)

	return product
}

// TestDocumentInsert verifies the at-most-once document recording logic.
func (s *BaseSuite) TestDocumentInsert(c *check.C) {
	product := s.mustUpsertProduct(c, "acme-mx", "https://acme.example/personas/cuenta")

	doc := &catalog.Document{
		ProductID: product.ID,
		URL:       "https://acme.example/docs/terms.pdf",
		LocalPath: "/data/acme-mx/terms-pdf",
		Text:      "annual fee disclosure",
		ScrapedAt: time.Now().Truncate(time.Second).UTC(),
	}

	err := s.s.InsertDocument(doc)

	c.Assert(err, check.IsNil)
	c.Assert(doc.ID, check.Not(check.Equals), uuid.Nil,
		check.Commentf("Expected an ID to be assigned to the new document."),
	)
	c.Assert(doc.Version, check.Equals, 1)
	c.Assert(doc.IsActive, check.Equals, true)

	// A second insert for the same (product, url) pair must be rejected.
	dup := &catalog.Document{
		ProductID: product.ID,
		URL:       doc.URL,
		LocalPath: doc.LocalPath,
		Text:      "changed remote content",
		ScrapedAt: time.Now().UTC(),
	}

	err = s.s.InsertDocument(dup)
	c.Assert(errors.Is(err, catalog.ErrExists), check.Equals, true)

	list, err := s.s.DocumentsByProduct(product.ID)
	c.Assert(err, check.IsNil)
	c.Assert(len(list), check.Equals, 1)
	c.Assert(list[0].Text, check.Equals, "annual fee disclosure")
}

// TestDocumentInsertUnknownProduct verifies that inserting a document
// for a non-existent product fails.
func (s *BaseSuite) TestDocumentInsertUnknownProduct(c *check.C) {
	err := s.s.InsertDocument(&catalog.Document{
		ProductID: uuid.New(),
		URL:       "https://acme.example/docs/terms.pdf",
		LocalPath: "/data/orphan",
		ScrapedAt: time.Now().UTC(),
	})

	c.Assert(errors.Is(err, catalog.ErrUnknownOwner), check.Equals, true)
}

// TestHasDocument verifies the document existence probe.
func (s *BaseSuite) TestHasDocument(c *check.C) {
	product := s.mustUpsertProduct(c, "acme-mx", "https://acme.example/personas/cuenta")

	exists, err := s.s.HasDocument(product.ID, "https://acme.example/docs/terms.pdf")
	c.Assert(err, check.IsNil)
	c.Assert(exists, check.Equals, false)

	c.Assert(s.s.InsertDocument(&catalog.Document{
		ProductID: product.ID,
		URL:       "https://acme.example/docs/terms.pdf",
		LocalPath: "/data/acme-mx/terms-pdf",
		ScrapedAt: time.Now().UTC(),
	}), check.IsNil)

	exists, err = s.s.HasDocument(product.ID, "https://acme.example/docs/terms.pdf")
	c.Assert(err, check.IsNil)
	c.Assert(exists, check.Equals, true)
}

// TestFindDocument verifies the document lookup logic.
func (s *BaseSuite) TestFindDocument(c *check.C) {
	product := s.mustUpsertProduct(c, "acme-mx", "https://acme.example/personas/cuenta")

	doc := &catalog.Document{
		ProductID: product.ID,
		URL:       "https://acme.example/docs/terms.pdf",
		LocalPath: "/data/acme-mx/terms-pdf",
		Text:      "annual fee disclosure",
		ScrapedAt: time.Now().Truncate(time.Second).UTC(),
	}
	c.Assert(s.s.InsertDocument(doc), check.IsNil)

	stored, err := s.s.FindDocument(doc.ID)
	c.Assert(err, check.IsNil)
	c.Assert(stored, check.DeepEquals, doc)

	_, err = s.s.FindDocument(uuid.Nil)
	c.Assert(errors.Is(err, catalog.ErrNotFound), check.Equals, true)
}

// TestDocumentIterator verifies that the iterator visits every recorded
// document exactly once.
func (s *BaseSuite) TestDocumentIterator(c *check.C) {
	product := s.mustUpsertProduct(c, "acme-mx", "https://acme.example/personas/cuenta")

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		url := fmt.Sprintf("https://acme.example/docs/terms-%d.pdf", i)
		seen[url] = false

		c.Assert(s.s.InsertDocument(&catalog.Document{
			ProductID: product.ID,
			URL:       url,
			LocalPath: fmt.Sprintf("/data/acme-mx/terms-%d-pdf", i),
			ScrapedAt: time.Now().UTC(),
		}), check.IsNil)
	}

	it, err := s.s.Documents()
	c.Assert(err, check.IsNil)

	var count int
	for it.Next() {
		doc := it.Document()
		visited, exists := seen[doc.URL]
		c.Assert(exists, check.Equals, true)
		c.Assert(visited, check.Equals, false)

		seen[doc.URL] = true
		count++
	}

	c.Assert(it.Error(), check.IsNil)
	c.Assert(it.Close(), check.IsNil)
	c.Assert(count, check.Equals, 5)
}

// TestSearchDocuments verifies the substring search fallback path.
func (s *BaseSuite) TestSearchDocuments(c *check.C) {
	product := s.mustUpsertProduct(c, "acme-mx", "https://acme.example/personas/cuenta")

	texts := []string{
		"annual fee and interest RATE disclosure",
		"monthly interest rate schedule",
		"unrelated content",
	}
	for i, text := range texts {
		c.Assert(s.s.InsertDocument(&catalog.Document{
			ProductID: product.ID,
			URL:       fmt.Sprintf("https://acme.example/docs/doc-%d.pdf", i),
			LocalPath: fmt.Sprintf("/data/acme-mx/doc-%d-pdf", i),
			Text:      text,
			ScrapedAt: time.Now().UTC(),
		}), check.IsNil)
	}

	// Matching is case-insensitive.
	matches, err := s.s.SearchDocuments("interest rate", 10)
	c.Assert(err, check.IsNil)
	c.Assert(len(matches), check.Equals, 2)

	// The result set is capped at the provided limit.
	matches, err = s.s.SearchDocuments("interest rate", 1)
	c.Assert(err, check.IsNil)
	c.Assert(len(matches), check.Equals, 1)

	// A term matching no document yields an empty result, not an error.
	matches, err = s.s.SearchDocuments("no such phrase", 10)
	c.Assert(err, check.IsNil)
	c.Assert(len(matches), check.Equals, 0)
}
