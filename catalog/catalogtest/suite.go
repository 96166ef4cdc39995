package catalogtest

import (
	"github.com/mycok/fincrawl/catalog"
)

// BaseSuite defines a set of re-usable catalog-related tests that can
// be executed against any concrete type that implements the
// catalog.Store interface.
type BaseSuite struct {
	s catalog.Store
}

// SetStore configures the test-suite to run all tests against an
// instance of catalog.Store.
func (s *BaseSuite) SetStore(store catalog.Store) {
	s.s = store
}
