/*
	crawler package is a web crawler implementation using a pipeline strategy
	to discover, store and index the product documentation published by
	financial institutions. Crawling an institution involves the following
	stages:
		1. Retrieve the institution's landing page and extract the links
		that match the institution's configured product patterns.
		2. For each discovered product link:
			- record the product in the catalog and refresh its last
			  seen timestamp.
			- retrieve the product page contents from the remote server.
			- extract the page title and the links to the PDF documents
			  embedded in the page.
			- archive each document exactly once by downloading it,
			  extracting its text content and recording it in the catalog
			  and the search index.
*/

package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/fincrawl/catalog"
	"github.com/mycok/fincrawl/config"
	"github.com/mycok/fincrawl/pipeline"
)

// Config serves as a configuration object for the crawler.
type Config struct {
	// API for performing HTTP GET requests for pages and documents.
	Getter URLGetter

	// API for recording institutions, products and archived documents.
	Catalog MiniCatalog

	// API for indexing the text content of archived documents.
	Indexer MiniIndexer

	// Root directory for downloaded documents. Each institution gets its
	// own sub-directory.
	DataDir string

	// User-agent header value sent with every outgoing request. Defaults
	// to the crawler's descriptive user-agent if not defined.
	UserAgent string

	// Clock used for last seen / scraped at timestamps. Defaults to the
	// system wall clock if not defined.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.Getter == nil {
		err = multierror.Append(err, fmt.Errorf("URL getter not provided"))
	}

	if cfg.Catalog == nil {
		err = multierror.Append(err, fmt.Errorf("catalog API not provided"))
	}

	if cfg.Indexer == nil {
		err = multierror.Append(err, fmt.Errorf("index API not provided"))
	}

	if cfg.DataDir == "" {
		err = multierror.Append(err, fmt.Errorf("data directory not provided"))
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Crawler executes a product documentation crawler pipeline.
type Crawler struct {
	cfg      Config
	archiver *docArchiver
	p        *pipeline.Pipeline
}

// New validates the provided config and returns a pointer to a fully
// configured crawler type.
func New(cfg Config) (*Crawler, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("crawler: config validation failed: %w", err)
	}

	archiver := newDocArchiver(&cfg)

	return &Crawler{
		cfg:      cfg,
		archiver: archiver,
		p: pipeline.New(
			pipeline.NewFIFO(newProductRecorder(cfg.Catalog, cfg.Clock)),
			pipeline.NewFIFO(newPageFetcher(cfg.Getter, cfg.UserAgent, cfg.Logger)),
			pipeline.NewFIFO(newContentExtractor()),
			pipeline.NewFIFO(archiver),
		),
	}, nil
}

// CrawlInstitution retrieves the landing page of the provided institution,
// records the institution in the catalog and runs the product pipeline over
// the discovered product links. It returns the number of products that made
// it through the entire pipeline.
//
// Calls to CrawlInstitution block until the pipeline execution is complete.
func (c *Crawler) CrawlInstitution(
	ctx context.Context, target *config.Institution,
) (int, error) {

	var buf bytes.Buffer
	err := fetchHTML(ctx, c.cfg.Getter, c.cfg.UserAgent, target.BaseURL, &buf)
	if err != nil {
		return 0, fmt.Errorf("fetch landing page for %q: %w", target.Slug, err)
	}

	base, err := url.Parse(target.BaseURL)
	if err != nil {
		return 0, fmt.Errorf("parse base url for %q: %w", target.Slug, err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return 0, fmt.Errorf("parse landing page for %q: %w", target.Slug, err)
	}

	productLinks := extractProductLinks(doc, base, target.Patterns())

	c.cfg.Logger.WithFields(logrus.Fields{
		"institution": target.Slug,
		"products":    len(productLinks),
	}).Info("discovered product links")

	inst := &catalog.Institution{
		Slug:     target.Slug,
		Name:     target.Name,
		Country:  target.Country,
		Currency: target.Currency,
	}

	if err := c.cfg.Catalog.UpsertInstitution(inst); err != nil {
		return 0, fmt.Errorf("upsert institution %q: %w", target.Slug, err)
	}

	sink := new(countingSink)

	err = c.p.Execute(ctx, &productSource{
		institutionID:   inst.ID,
		institutionSlug: inst.Slug,
		urls:            productLinks,
	}, sink)

	return sink.getCount(), err
}
