package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mycok/fincrawl/catalog"
	memstore "github.com/mycok/fincrawl/catalog/store/memory"
	pgstore "github.com/mycok/fincrawl/catalog/store/pg"
	"github.com/mycok/fincrawl/config"
	"github.com/mycok/fincrawl/docindex"
	esindex "github.com/mycok/fincrawl/docindex/store/es"
	memindex "github.com/mycok/fincrawl/docindex/store/memory"
	"github.com/mycok/fincrawl/service"
	"github.com/mycok/fincrawl/service/scraper"
	"github.com/mycok/fincrawl/service/webapi"
)

const appName = "fincrawl"

func main() {
	host, _ := os.Hostname()
	// Instantiate a root logger that will be passed to all services.
	rootLogger := logrus.New()
	logger := rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"host": host,
	})

	var (
		configPath    string
		dataDir       string
		catalogURI    string
		indexURI      string
		listenAddr    string
		crawlSchedule string
		fetchTimeout  time.Duration
		searchLimit   int
		runNow        bool
		runScheduler  bool
	)

	flag.StringVar(
		&configPath, "config", "",
		"Path to a YAML file listing the institutions to crawl."+
			" [defaults to a built-in single-institution list]",
	)
	flag.StringVar(
		&dataDir, "data-dir", "data",
		"Directory for storing downloaded document artifacts",
	)
	flag.StringVar(
		&catalogURI, "catalog-uri", "in-memory://",
		"URI for connecting to a catalog data store."+
			" [supported URI's: in-memory://, postgresql://user@host:5432/fincrawl?sslmode=disable]",
	)
	flag.StringVar(
		&indexURI, "search-index-uri", "in-memory://",
		"URI for connecting to a document search index store."+
			" [supported URI's: in-memory://, es://node1:9200,...,nodeN:9200]",
	)
	flag.StringVar(
		&listenAddr, "listen-addr", ":8000",
		"Address to listen on for incoming API requests",
	)
	flag.StringVar(
		&crawlSchedule, "crawl-schedule", "",
		"Cron expression for scheduled crawl passes."+
			" [defaults to every Sunday at 03:00 UTC]",
	)
	flag.DurationVar(
		&fetchTimeout, "fetch-timeout", 30*time.Second,
		"Timeout for outbound page and document requests",
	)
	flag.IntVar(
		&searchLimit, "search-limit", 0,
		"Default number of results returned by the search endpoint."+
			" [defaults to 20]",
	)
	flag.BoolVar(&runNow, "run-now", false, "Run a single crawl pass and exit")
	flag.BoolVar(
		&runScheduler, "schedule", false,
		"Run the crawl scheduler instead of the API server",
	)

	flag.Parse()

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	// Launch a separate process to listen and respond to os signals
	// and trigger a graceful shutdown.
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to os signal")
			// Cancel context, this signals all services to return since they
			// all share this same context.
			cancelFn()
		case <-ctx.Done():
		}
	}()

	catalogStore, err := getCatalog(catalogURI, logger)
	if err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		os.Exit(1)
	}

	indexStore, err := getIndexer(indexURI, logger)
	if err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		os.Exit(1)
	}

	institutions, err := getInstitutions(configPath, logger)
	if err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		os.Exit(1)
	}

	scraperConfig := scraper.Config{
		CatalogAPI:    catalogStore,
		IndexAPI:      indexStore,
		Institutions:  institutions,
		DataDir:       dataDir,
		URLGetter:     &http.Client{Timeout: fetchTimeout},
		CrawlSchedule: crawlSchedule,
		Logger:        logger.WithField("service", "scraper"),
	}

	var svcGroup service.Group

	switch {
	case runNow:
		// One-shot crawl pass, no long-running services.
		svc, err := scraper.New(scraperConfig)
		if err != nil {
			logger.WithField("err", err).Error("shutting down due to an error")
			os.Exit(1)
		}

		if err := svc.RunOnce(ctx); err != nil {
			logger.WithField("err", err).Error("crawl pass completed with errors")
			os.Exit(1)
		}

		logger.Info("crawl pass complete")

		return
	case runScheduler:
		svc, err := scraper.New(scraperConfig)
		if err != nil {
			logger.WithField("err", err).Error("shutting down due to an error")
			os.Exit(1)
		}

		svcGroup = append(svcGroup, svc)
	default:
		svc, err := webapi.New(webapi.Config{
			CatalogAPI:  catalogStore,
			IndexAPI:    indexStore,
			ListenAddr:  listenAddr,
			SearchLimit: searchLimit,
			Logger:      logger.WithField("service", "web-api"),
		})
		if err != nil {
			logger.WithField("err", err).Error("shutting down due to an error")
			os.Exit(1)
		}

		svcGroup = append(svcGroup, svc)
	}

	if err := svcGroup.Execute(ctx); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		os.Exit(1)
	}

	// Shutdown due to context cancellation.
	logger.Info("shutdown complete")
}

func getCatalog(catalogURI string, logger *logrus.Entry) (catalog.Store, error) {
	if catalogURI == "" {
		return nil, fmt.Errorf("catalog URI must be specified with --catalog-uri")
	}

	url, err := url.Parse(catalogURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog URI: %w", err)
	}

	switch url.Scheme {
	case "in-memory":
		logger.Info("using in-memory catalog store")

		return memstore.NewInMemoryStore(), nil
	case "postgresql":
		logger.Info("using postgres catalog store")

		return pgstore.NewPostgresStore(catalogURI)
	default:
		return nil, fmt.Errorf("unsupported catalog URI scheme: %q", url.Scheme)
	}
}

func getIndexer(indexURI string, logger *logrus.Entry) (docindex.Indexer, error) {
	if indexURI == "" {
		return nil, fmt.Errorf("search index URI must be specified with --search-index-uri")
	}

	url, err := url.Parse(indexURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search index URI: %w", err)
	}

	switch url.Scheme {
	case "in-memory":
		logger.Info("using in-memory index store")

		return memindex.NewInMemoryIndex()
	case "es":
		nodes := strings.Split(url.Host, ",")
		for i := 0; i < len(nodes); i++ {
			nodes[i] = "http://" + nodes[i]
		}
		logger.Info("using ES index store")

		return esindex.NewEsIndexer(nodes, false)
	default:
		return nil, fmt.Errorf("unsupported search index URI scheme: %q", url.Scheme)
	}
}

func getInstitutions(configPath string, logger *logrus.Entry) ([]*config.Institution, error) {
	if configPath == "" {
		logger.Info("using built-in institution list")

		return config.Default(), nil
	}

	institutions, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"config_path":  configPath,
		"institutions": len(institutions),
	}).Info("loaded institution list")

	return institutions, nil
}
