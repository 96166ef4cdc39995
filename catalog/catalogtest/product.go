package catalogtest

import (
	"errors"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/fincrawl/catalog"
)

func (s *BaseSuite) mustUpsertInstitution(c *check.C, slug string) *catalog.Institution {
	inst := &catalog.Institution{
		Slug: slug,
		Name: slug,
	}

	c.Assert(s.s.UpsertInstitution(inst), check.IsNil)

	return inst
}

// TestProductUpsert verifies that re-crawling the same product URL
// refreshes the last-seen timestamp instead of duplicating the row.
func (s *BaseSuite) TestProductUpsert(c *check.C) {
	inst := s.mustUpsertInstitution(c, "acme-mx")

	firstSeen := time.Now().Truncate(time.Second).UTC().Add(-time.Hour)
	initial := &catalog.Product{
		InstitutionID: inst.ID,
		URL:           "https://acme.example/personas/cuenta",
		Slug:          "https-acme-example-personas-cuenta",
		LastSeen:      firstSeen,
	}

	err := s.s.UpsertProduct(initial)

	c.Assert(err, check.IsNil)
	c.Assert(initial.ID, check.Not(check.Equals), uuid.Nil,
		check.Commentf("Expected an ID to be assigned to the new product."),
	)

	// Re-crawl the same URL with a newer timestamp. The row must be
	// updated in place.
	lastSeen := time.Now().Truncate(time.Second).UTC()
	recrawled := &catalog.Product{
		InstitutionID: inst.ID,
		URL:           initial.URL,
		Slug:          initial.Slug,
		LastSeen:      lastSeen,
	}

	err = s.s.UpsertProduct(recrawled)

	c.Assert(err, check.IsNil)
	c.Assert(
		recrawled.ID, check.Equals, initial.ID,
		check.Commentf("ID changed during upsert"),
	)

	stored, err := s.s.FindProduct(initial.ID)
	c.Assert(err, check.IsNil)
	c.Assert(stored.LastSeen, check.Equals, lastSeen)

	list, err := s.s.ProductsByInstitution(inst.ID)
	c.Assert(err, check.IsNil)
	c.Assert(len(list), check.Equals, 1,
		check.Commentf("Re-crawling the same URL created a duplicate product"),
	)
}

// TestProductUpsertScopedToInstitution verifies that the same URL can be
// recorded under two different institutions.
func (s *BaseSuite) TestProductUpsertScopedToInstitution(c *check.C) {
	first := s.mustUpsertInstitution(c, "acme-mx")
	second := s.mustUpsertInstitution(c, "acme-us")

	for _, inst := range []*catalog.Institution{first, second} {
		err := s.s.UpsertProduct(&catalog.Product{
			InstitutionID: inst.ID,
			URL:           "https://shared.example/product",
			Slug:          "https-shared-example-product",
			LastSeen:      time.Now().UTC(),
		})
		c.Assert(err, check.IsNil)
	}

	for _, inst := range []*catalog.Institution{first, second} {
		list, err := s.s.ProductsByInstitution(inst.ID)
		c.Assert(err, check.IsNil)
		c.Assert(len(list), check.Equals, 1)
	}
}

// TestProductUpsertUnknownInstitution verifies that inserting a product
// for a non-existent institution fails.
func (s *BaseSuite) TestProductUpsertUnknownInstitution(c *check.C) {
	err := s.s.UpsertProduct(&catalog.Product{
		InstitutionID: uuid.New(),
		URL:           "https://acme.example/personas/cuenta",
		Slug:          "orphan",
		LastSeen:      time.Now().UTC(),
	})

	c.Assert(errors.Is(err, catalog.ErrUnknownOwner), check.Equals, true)
}

// TestSetProductTitle verifies that a product title is written at most
// once and never overwritten by later crawls.
func (s *BaseSuite) TestSetProductTitle(c *check.C) {
	inst := s.mustUpsertInstitution(c, "acme-mx")

	product := &catalog.Product{
		InstitutionID: inst.ID,
		URL:           "https://acme.example/personas/cuenta",
		Slug:          "https-acme-example-personas-cuenta",
		LastSeen:      time.Now().UTC(),
	}
	c.Assert(s.s.UpsertProduct(product), check.IsNil)

	err := s.s.SetProductTitle(product.ID, "Cuenta de ahorro")
	c.Assert(err, check.IsNil)

	// A second write must not replace the original title.
	err = s.s.SetProductTitle(product.ID, "A different title")
	c.Assert(err, check.IsNil)

	stored, err := s.s.FindProduct(product.ID)
	c.Assert(err, check.IsNil)
	c.Assert(stored.Title, check.Equals, "Cuenta de ahorro")

	// The stored title must survive a subsequent upsert of the same URL
	// and be reported back through the upserted product.
	recrawled := &catalog.Product{
		InstitutionID: inst.ID,
		URL:           product.URL,
		Slug:          product.Slug,
		LastSeen:      time.Now().UTC(),
	}
	c.Assert(s.s.UpsertProduct(recrawled), check.IsNil)
	c.Assert(recrawled.Title, check.Equals, "Cuenta de ahorro")
}

// TestFindProduct verifies the product lookup logic.
func (s *BaseSuite) TestFindProduct(c *check.C) {
	inst := s.mustUpsertInstitution(c, "acme-mx")

	product := &catalog.Product{
		InstitutionID: inst.ID,
		URL:           "https://acme.example/personas/cuenta",
		Slug:          "https-acme-example-personas-cuenta",
		LastSeen:      time.Now().Truncate(time.Second).UTC(),
	}
	c.Assert(s.s.UpsertProduct(product), check.IsNil)

	stored, err := s.s.FindProduct(product.ID)
	c.Assert(err, check.IsNil)
	c.Assert(stored, check.DeepEquals, product)

	_, err = s.s.FindProduct(uuid.Nil)
	c.Assert(errors.Is(err, catalog.ErrNotFound), check.Equals, true)
}
