package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/sirupsen/logrus"
	check "gopkg.in/check.v1"

	"github.com/mycok/fincrawl/catalog"
	memorystore "github.com/mycok/fincrawl/catalog/store/memory"
	"github.com/mycok/fincrawl/config"
	memoryindex "github.com/mycok/fincrawl/docindex/store/memory"
)

// Initialize and register a pointer instance of the crawlerTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(crawlerTestSuite))

type crawlerTestSuite struct {
	store *memorystore.InMemoryStore
	index *memoryindex.InMemoryIndex
}

func (s *crawlerTestSuite) SetUpTest(c *check.C) {
	s.store = memorystore.NewInMemoryStore()

	index, err := memoryindex.NewInMemoryIndex()
	c.Assert(err, check.IsNil)
	s.index = index
}

func (s *crawlerTestSuite) TearDownTest(c *check.C) {
	c.Assert(s.index.Close(), check.IsNil)
}

func (s *crawlerTestSuite) TestCrawlInstitution(c *check.C) {
	srv := newInstitutionServer()
	defer srv.Close()

	crawler := s.newCrawler(c, srv.URL)

	processed, err := crawler.CrawlInstitution(
		context.TODO(), s.institutionFor(c, srv.URL),
	)
	c.Assert(err, check.IsNil)
	c.Assert(processed, check.Equals, 2)

	// The institution and its products are recorded.
	inst, err := s.store.FindInstitutionBySlug("bbva-mx")
	c.Assert(err, check.IsNil)
	c.Assert(inst.Name, check.Equals, "BBVA México")

	products, err := s.store.ProductsByInstitution(inst.ID)
	c.Assert(err, check.IsNil)
	c.Assert(products, check.HasLen, 2)

	// Product titles come from the first h1 / title element of the page.
	byURL := make(map[string]*catalog.Product, len(products))
	for _, product := range products {
		byURL[product.URL] = product
	}

	cuentas := byURL[srv.URL+"/personas/cuentas"]
	c.Assert(cuentas, check.NotNil)
	c.Assert(cuentas.Title, check.Equals, "Cuenta Digital")

	// The documents linked from the product page are archived with the
	// duplicate anchor collapsed into a single document.
	docs, err := s.store.DocumentsByProduct(cuentas.ID)
	c.Assert(err, check.IsNil)
	c.Assert(docs, check.HasLen, 2)

	for _, doc := range docs {
		c.Assert(doc.Version, check.Equals, 1)
		c.Assert(doc.Text, check.Equals, "extracted text")

		// The downloaded file lands in the institution's sub-directory.
		c.Assert(
			filepath.Dir(doc.LocalPath), check.Equals,
			filepath.Join(crawler.cfg.DataDir, "bbva-mx"),
		)

		_, err := os.Stat(doc.LocalPath)
		c.Assert(err, check.IsNil)
	}
}

func (s *crawlerTestSuite) TestCrawlInstitutionIsIdempotent(c *check.C) {
	srv := newInstitutionServer()
	defer srv.Close()

	crawler := s.newCrawler(c, srv.URL)
	target := s.institutionFor(c, srv.URL)

	_, err := crawler.CrawlInstitution(context.TODO(), target)
	c.Assert(err, check.IsNil)

	countAfterFirstCrawl := s.countDocuments(c)

	// Re-crawling produces no duplicate institutions, products or
	// documents.
	_, err = crawler.CrawlInstitution(context.TODO(), target)
	c.Assert(err, check.IsNil)

	c.Assert(s.countDocuments(c), check.Equals, countAfterFirstCrawl)

	institutions, err := s.store.Institutions()
	c.Assert(err, check.IsNil)
	c.Assert(institutions, check.HasLen, 1)

	products, err := s.store.ProductsByInstitution(institutions[0].ID)
	c.Assert(err, check.IsNil)
	c.Assert(products, check.HasLen, 2)
}

func (s *crawlerTestSuite) TestCrawlInstitutionWithUnreachableLandingPage(c *check.C) {
	srv := newInstitutionServer()
	srv.Close()

	crawler := s.newCrawler(c, srv.URL)

	_, err := crawler.CrawlInstitution(
		context.TODO(), s.institutionFor(c, srv.URL),
	)
	c.Assert(err, check.ErrorMatches, `fetch landing page for "bbva-mx".*`)

	// Nothing is recorded for an unreachable institution.
	institutions, err := s.store.Institutions()
	c.Assert(err, check.IsNil)
	c.Assert(institutions, check.HasLen, 0)
}

func (s *crawlerTestSuite) newCrawler(c *check.C, baseURL string) *Crawler {
	crawler, err := New(Config{
		Getter:  http.DefaultClient,
		Catalog: s.store,
		Indexer: s.index,
		DataDir: c.MkDir(),
		Clock:   testclock.NewClock(time.Now().UTC()),
		Logger:  logrus.NewEntry(&logrus.Logger{Out: io.Discard}),
	})
	c.Assert(err, check.IsNil)

	crawler.archiver.extractText = func(localPath string) (string, error) {
		return "extracted text", nil
	}

	return crawler
}

func (s *crawlerTestSuite) institutionFor(
	c *check.C, baseURL string,
) *config.Institution {

	path := filepath.Join(c.MkDir(), "institutions.yaml")
	contents := fmt.Sprintf(`
- slug: bbva-mx
  name: BBVA México
  base_url: %s
  product_patterns:
    - /personas/[^#?]*
  country: MX
  currency: MXN
`, baseURL)

	err := os.WriteFile(path, []byte(contents), 0o644)
	c.Assert(err, check.IsNil)

	institutions, err := config.Load(path)
	c.Assert(err, check.IsNil)
	c.Assert(institutions, check.HasLen, 1)

	return institutions[0]
}

func (s *crawlerTestSuite) countDocuments(c *check.C) int {
	it, err := s.store.Documents()
	c.Assert(err, check.IsNil)

	var count int
	for it.Next() {
		count++
	}

	c.Assert(it.Error(), check.IsNil)
	c.Assert(it.Close(), check.IsNil)

	return count
}

// newInstitutionServer serves a minimal institution web site with a landing
// page, two product pages and the PDF documents linked from them.
func newInstitutionServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, `
		<html><body>
			<a href="/personas/cuentas">Cuentas</a>
			<a href="/personas/tarjetas">Tarjetas</a>
			<a href="/empresas/creditos">Créditos</a>
			<a href="/personas/cuentas">Cuentas duplicado</a>
		</body></html>`)
	})

	mux.HandleFunc("/personas/cuentas", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, `
		<html><body>
			<h1>Cuenta Digital</h1>
			<a href="/docs/cuentas-terms.pdf">Términos</a>
			<a href="/docs/cuentas-fees.pdf">Comisiones</a>
			<a href="/docs/cuentas-terms.pdf">Términos duplicado</a>
		</body></html>`)
	})

	mux.HandleFunc("/personas/tarjetas", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, `
		<html><body>
			<h1>Tarjeta de Crédito</h1>
			<a href="/docs/tarjetas-terms.pdf">Términos</a>
		</body></html>`)
	})

	mux.HandleFunc("/docs/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = fmt.Fprint(w, "%PDF-1.4 fake document")
	})

	return httptest.NewServer(mux)
}
