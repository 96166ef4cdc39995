package scraper

import (
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/fincrawl/config"
	"github.com/mycok/fincrawl/crawler"
)

// Default crawl schedule: every Sunday at 03:00 UTC.
const defaultCrawlSchedule = "0 3 * * 0"

// Config defines configurations for the scraper service.
type Config struct {
	// API for interacting with the catalog data store.
	CatalogAPI crawler.MiniCatalog

	// API for communicating with the search index store.
	IndexAPI crawler.MiniIndexer

	// The list of institutions to crawl, in crawl order.
	Institutions []*config.Institution

	// Root directory for downloaded documents.
	DataDir string

	// An API for performing HTTP requests. If not specified,
	// http.DefaultClient will be used instead.
	URLGetter crawler.URLGetter

	// User-agent header value sent with every outgoing request. If not
	// specified, the crawler's default user-agent is used instead.
	UserAgent string

	// Cron expression for the weekly crawl schedule, evaluated in UTC.
	// Defaults to Sunday 03:00 UTC if not specified.
	CrawlSchedule string

	// A clock instance for generating time-related events. If not
	// specified, the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.CatalogAPI == nil {
		err = multierror.Append(err, fmt.Errorf("catalog API not provided"))
	}

	if cfg.IndexAPI == nil {
		err = multierror.Append(err, fmt.Errorf("index API not provided"))
	}

	if len(cfg.Institutions) == 0 {
		err = multierror.Append(err, fmt.Errorf("no institutions provided"))
	}

	if cfg.DataDir == "" {
		err = multierror.Append(err, fmt.Errorf("data directory not provided"))
	}

	if cfg.URLGetter == nil {
		cfg.URLGetter = http.DefaultClient
	}

	if cfg.CrawlSchedule == "" {
		cfg.CrawlSchedule = defaultCrawlSchedule
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
