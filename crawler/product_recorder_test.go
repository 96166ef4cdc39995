package crawler

import (
	"context"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	check "gopkg.in/check.v1"

	"github.com/mycok/fincrawl/catalog"
	mock_crawler "github.com/mycok/fincrawl/crawler/mocks"
)

// Initialize and register a pointer instance of the productRecorderTestSuite
// to be executed by check testing package.
var _ = check.Suite(new(productRecorderTestSuite))

type productRecorderTestSuite struct{}

func (s *productRecorderTestSuite) TestSuccessfulProductUpsert(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	store := mock_crawler.NewMockMiniCatalog(ctrl)

	now := time.Date(2024, time.March, 3, 3, 0, 0, 0, time.UTC)
	clk := testclock.NewClock(now)

	assignedID := uuid.New()
	storedTitle := "Cuenta Digital"

	store.EXPECT().
		UpsertProduct(productMatcher{
			expected: &catalog.Product{
				URL:      "https://www.bbva.mx/personas/cuentas",
				Slug:     "https-www-bbva-mx-personas-cuentas",
				LastSeen: now,
			},
		}).
		DoAndReturn(func(product *catalog.Product) error {
			// Mirror the catalog reporting back the assigned ID and the
			// previously stored title.
			product.ID = assignedID
			product.Title = storedTitle

			return nil
		})

	payload := &productPayload{
		InstitutionID: uuid.New(),
		URL:           "https://www.bbva.mx/personas/cuentas",
	}

	recorder := newProductRecorder(store, clk)

	processed, err := recorder.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(processed, check.Equals, payload)
	c.Assert(payload.ProductID, check.Equals, assignedID)
	c.Assert(payload.StoredTitle, check.Equals, storedTitle)
	c.Assert(payload.LastSeen, check.Equals, now)
}

// productMatcher matches products on everything except their
// catalog-assigned fields.
type productMatcher struct {
	expected *catalog.Product
}

func (m productMatcher) Matches(x interface{}) bool {
	product, ok := x.(*catalog.Product)
	if !ok {
		return false
	}

	return product.URL == m.expected.URL &&
		product.Slug == m.expected.Slug &&
		product.LastSeen.Equal(m.expected.LastSeen)
}

func (m productMatcher) String() string {
	return "matches the expected product fields"
}
