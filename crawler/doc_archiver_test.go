package crawler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/sirupsen/logrus"
	check "gopkg.in/check.v1"

	"github.com/mycok/fincrawl/catalog"
	mock_crawler "github.com/mycok/fincrawl/crawler/mocks"
	"github.com/mycok/fincrawl/docindex"
)

// Initialize and register a pointer instance of the docArchiverTestSuite
// to be executed by check testing package.
var _ = check.Suite(new(docArchiverTestSuite))

type docArchiverTestSuite struct {
	store   *mock_crawler.MockMiniCatalog
	indexer *mock_crawler.MockMiniIndexer
}

func (s *docArchiverTestSuite) TestArchivingNewDocument(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4 fake document"))
		}))
	defer srv.Close()

	now := time.Date(2024, time.March, 3, 3, 0, 0, 0, time.UTC)
	archiver, payload := s.setup(c, ctrl, now)

	docURL := srv.URL + "/docs/terms.pdf"
	payload.PDFLinks = []string{docURL}

	assignedID := uuid.New()

	s.store.EXPECT().HasDocument(payload.ProductID, docURL).Return(false, nil)
	s.store.EXPECT().
		InsertDocument(gomock.Any()).
		DoAndReturn(func(doc *catalog.Document) error {
			c.Assert(doc.ProductID, check.Equals, payload.ProductID)
			c.Assert(doc.URL, check.Equals, docURL)
			c.Assert(doc.Text, check.Equals, "extracted text")
			c.Assert(doc.ScrapedAt, check.Equals, now)

			doc.ID = assignedID
			doc.Version = 1
			doc.IsActive = true

			return nil
		})
	s.indexer.EXPECT().
		Index(gomock.Any()).
		DoAndReturn(func(doc *docindex.Document) error {
			c.Assert(doc.DocID, check.Equals, assignedID)
			c.Assert(doc.ProductID, check.Equals, payload.ProductID)
			c.Assert(doc.URL, check.Equals, docURL)
			c.Assert(doc.Content, check.Equals, "extracted text")

			return nil
		})

	processed, err := archiver.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(processed, check.Equals, payload)
}

func (s *docArchiverTestSuite) TestArchivedDocumentIsNeverReprocessed(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	archiver, payload := s.setup(c, ctrl, time.Now().UTC())
	payload.PDFLinks = []string{"https://www.bbva.mx/docs/terms.pdf"}

	// No download, insert or index calls are expected for a document that
	// has already been archived.
	s.store.EXPECT().
		HasDocument(payload.ProductID, payload.PDFLinks[0]).
		Return(true, nil)

	_, err := archiver.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
}

func (s *docArchiverTestSuite) TestDownloadFailureSkipsDocument(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/docs/broken.pdf" {
				http.Error(w, "boom", http.StatusInternalServerError)

				return
			}

			_, _ = w.Write([]byte("%PDF-1.4 fake document"))
		}))
	defer srv.Close()

	archiver, payload := s.setup(c, ctrl, time.Now().UTC())

	brokenURL := srv.URL + "/docs/broken.pdf"
	workingURL := srv.URL + "/docs/terms.pdf"
	payload.PDFLinks = []string{brokenURL, workingURL}

	// The broken document is skipped and the remaining document of the
	// product is still archived.
	s.store.EXPECT().HasDocument(payload.ProductID, brokenURL).Return(false, nil)
	s.store.EXPECT().HasDocument(payload.ProductID, workingURL).Return(false, nil)
	s.store.EXPECT().InsertDocument(gomock.Any()).Return(nil)
	s.indexer.EXPECT().Index(gomock.Any()).Return(nil)

	_, err := archiver.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
}

func (s *docArchiverTestSuite) TestConcurrentInsertConflictIsIgnored(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("%PDF-1.4 fake document"))
		}))
	defer srv.Close()

	archiver, payload := s.setup(c, ctrl, time.Now().UTC())

	docURL := srv.URL + "/docs/terms.pdf"
	payload.PDFLinks = []string{docURL}

	s.store.EXPECT().HasDocument(payload.ProductID, docURL).Return(false, nil)
	// No index call is expected when the insert reports a conflict.
	s.store.EXPECT().InsertDocument(gomock.Any()).Return(catalog.ErrExists)

	_, err := archiver.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
}

func (s *docArchiverTestSuite) TestFirstExtractedTitleWins(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	archiver, payload := s.setup(c, ctrl, time.Now().UTC())
	payload.Title = "Cuenta Digital"

	s.store.EXPECT().
		SetProductTitle(payload.ProductID, "Cuenta Digital").
		Return(nil)

	_, err := archiver.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
}

func (s *docArchiverTestSuite) TestStoredTitleIsNeverOverwritten(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	archiver, payload := s.setup(c, ctrl, time.Now().UTC())
	payload.StoredTitle = "Cuenta Digital"
	payload.Title = "Cuenta Digital | BBVA"

	// No SetProductTitle call is expected for a product that already has
	// a stored title.
	_, err := archiver.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
}

func (s *docArchiverTestSuite) setup(
	c *check.C, ctrl *gomock.Controller, now time.Time,
) (*docArchiver, *productPayload) {

	s.store = mock_crawler.NewMockMiniCatalog(ctrl)
	s.indexer = mock_crawler.NewMockMiniIndexer(ctrl)

	cfg := Config{
		Getter:  http.DefaultClient,
		Catalog: s.store,
		Indexer: s.indexer,
		DataDir: c.MkDir(),
		Clock:   testclock.NewClock(now),
		Logger:  logrus.NewEntry(&logrus.Logger{Out: io.Discard}),
	}
	c.Assert(cfg.validate(), check.IsNil)

	archiver := newDocArchiver(&cfg)
	archiver.extractText = func(localPath string) (string, error) {
		return "extracted text", nil
	}

	payload := &productPayload{
		InstitutionID:   uuid.New(),
		InstitutionSlug: "bbva-mx",
		ProductID:       uuid.New(),
		URL:             "https://www.bbva.mx/personas/cuentas",
	}

	return archiver, payload
}
