package catalogtest

import (
	"errors"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/fincrawl/catalog"
)

// TestInstitutionUpsert verifies the institution upsert logic.
func (s *BaseSuite) TestInstitutionUpsert(c *check.C) {
	initial := &catalog.Institution{
		Slug:     "acme-mx",
		Name:     "Acme Bank",
		Country:  "MX",
		Currency: "MXN",
	}

	err := s.s.UpsertInstitution(initial)

	c.Assert(err, check.IsNil)
	// Expect a new ID to be assigned to the new institution.
	c.Assert(initial.ID, check.Not(check.Equals), uuid.Nil,
		check.Commentf("Expected an ID to be assigned to the new institution."),
	)

	// Attempt to upsert an institution with the same slug but an updated
	// display name. The operation should update the existing row in place.
	updated := &catalog.Institution{
		Slug:     "acme-mx",
		Name:     "Acme Bank México",
		Country:  "MX",
		Currency: "MXN",
	}

	err = s.s.UpsertInstitution(updated)

	c.Assert(err, check.IsNil)
	c.Assert(
		updated.ID, check.Equals, initial.ID,
		check.Commentf("ID changed during upsert"),
	)

	inst, err := s.s.FindInstitutionBySlug("acme-mx")
	c.Assert(err, check.IsNil)
	c.Assert(inst.Name, check.Equals, "Acme Bank México")

	// Upserting the same slug twice must not create an extra row.
	list, err := s.s.Institutions()
	c.Assert(err, check.IsNil)
	c.Assert(len(list), check.Equals, 1)
}

// TestInstitutionList verifies that all institutions are returned in a
// deterministic order.
func (s *BaseSuite) TestInstitutionList(c *check.C) {
	for _, slug := range []string{"delta", "alpha", "charlie"} {
		err := s.s.UpsertInstitution(&catalog.Institution{
			Slug: slug,
			Name: slug,
		})
		c.Assert(err, check.IsNil)
	}

	list, err := s.s.Institutions()
	c.Assert(err, check.IsNil)
	c.Assert(len(list), check.Equals, 3)

	var slugs []string
	for _, inst := range list {
		slugs = append(slugs, inst.Slug)
	}
	c.Assert(slugs, check.DeepEquals, []string{"alpha", "charlie", "delta"})
}

// TestFindInstitutionBySlug verifies the institution lookup logic.
func (s *BaseSuite) TestFindInstitutionBySlug(c *check.C) {
	newInst := &catalog.Institution{
		Slug: "acme-mx",
		Name: "Acme Bank",
	}

	err := s.s.UpsertInstitution(newInst)
	c.Assert(err, check.IsNil)

	inst, err := s.s.FindInstitutionBySlug("acme-mx")
	c.Assert(err, check.IsNil)
	c.Assert(
		inst, check.DeepEquals, newInst,
		check.Commentf("Lookup by slug returned wrong institution"),
	)

	// Lookup by unknown slug must yield an explicit not-found error and
	// never an empty result.
	_, err = s.s.FindInstitutionBySlug("no-such-bank")
	c.Assert(errors.Is(err, catalog.ErrNotFound), check.Equals, true)
}
