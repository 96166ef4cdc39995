package crawler

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/fincrawl/catalog"
	"github.com/mycok/fincrawl/docindex"
	"github.com/mycok/fincrawl/pipeline"
)

// Static and compile-time check to ensure docArchiver implements
// pipeline.Processor interface.
var _ pipeline.Processor = (*docArchiver)(nil)

// docArchiver serves as the last stage processor of the crawler pipeline.
// it assigns titles to newly discovered products and archives the PDF
// documents linked from each product page by downloading them, extracting
// their text content and recording them in the catalog and the search index.
type docArchiver struct {
	store     MiniCatalog
	indexer   MiniIndexer
	getter    URLGetter
	userAgent string
	dataDir   string
	clk       clock.Clock
	logger    *logrus.Entry

	extractText func(localPath string) (string, error)
}

func newDocArchiver(cfg *Config) *docArchiver {
	return &docArchiver{
		store:       cfg.Catalog,
		indexer:     cfg.Indexer,
		getter:      cfg.Getter,
		userAgent:   cfg.UserAgent,
		dataDir:     cfg.DataDir,
		clk:         cfg.Clock,
		logger:      cfg.Logger,
		extractText: extractPDFText,
	}
}

// Process assigns the extracted page title to products that have none yet
// and archives each of the payload's document links exactly once. Document
// download failures are logged and skipped so the remaining documents of
// the product still get archived.
func (p *docArchiver) Process(
	ctx context.Context, payload pipeline.Payload,
) (pipeline.Payload, error) {

	cPayload, ok := payload.(*productPayload)
	if !ok {
		return nil, nil
	}

	// The first crawl to extract a title for a product wins. Subsequent
	// crawls never overwrite it.
	if cPayload.StoredTitle == "" && cPayload.Title != "" {
		err := p.store.SetProductTitle(cPayload.ProductID, cPayload.Title)
		if err != nil {
			return nil, err
		}
	}

	// Documents are downloaded into a directory named after the
	// institution that owns the product.
	downloadDir := filepath.Join(p.dataDir, cPayload.InstitutionSlug)

	for _, docURL := range cPayload.PDFLinks {
		exists, err := p.store.HasDocument(cPayload.ProductID, docURL)
		if err != nil {
			return nil, err
		}

		// Previously archived documents are never re-processed.
		if exists {
			continue
		}

		localPath, err := downloadPDF(
			ctx, p.getter, p.userAgent, docURL, downloadDir,
		)
		if err != nil {
			p.logger.WithFields(logrus.Fields{
				"url": docURL,
				"err": err,
			}).Warn("failed to download document")

			continue
		}

		text, err := p.extractText(localPath)
		if err != nil {
			return nil, err
		}

		doc := &catalog.Document{
			ProductID: cPayload.ProductID,
			URL:       docURL,
			LocalPath: localPath,
			Text:      text,
			ScrapedAt: p.clk.Now().UTC(),
		}

		if err := p.store.InsertDocument(doc); err != nil {
			// A concurrent crawl may have archived the document between
			// the existence check and the insert.
			if errors.Is(err, catalog.ErrExists) {
				continue
			}

			return nil, err
		}

		err = p.indexer.Index(&docindex.Document{
			DocID:     doc.ID,
			ProductID: doc.ProductID,
			URL:       doc.URL,
			Content:   doc.Text,
			IndexedAt: p.clk.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}

		p.logger.WithField("url", docURL).Info("archived document")
	}

	return cPayload, nil
}
