/*
	scraper package implements the service that periodically crawls the
	configured financial institutions and records the discovered products
	and documents.
*/

package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	crawler_pipeline "github.com/mycok/fincrawl/crawler"
)

// Service represents a scraper service for the fincrawl application. it
// satisfies the service.Service interface.
type Service struct {
	config  Config
	crawler *crawler_pipeline.Crawler
}

// New creates and returns a fully configured scraper service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("scraper service: config validation failed: %w", err)
	}

	crawler, err := crawler_pipeline.New(crawler_pipeline.Config{
		Getter:    config.URLGetter,
		Catalog:   config.CatalogAPI,
		Indexer:   config.IndexAPI,
		DataDir:   config.DataDir,
		UserAgent: config.UserAgent,
		Clock:     config.Clock,
		Logger:    config.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("scraper service: %w", err)
	}

	return &Service{
		config:  config,
		crawler: crawler,
	}, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "scraper" }

// Run installs the weekly crawl schedule and blocks until the context gets
// cancelled. Scheduled crawl passes that overlap a still-running pass are
// skipped.
func (svc *Service) Run(ctx context.Context) error {
	svc.config.Logger.WithField(
		"schedule", svc.config.CrawlSchedule,
	).Info("starting service")
	defer svc.config.Logger.Info("stopped service")

	cronLogger := cron.PrintfLogger(svc.config.Logger)
	scheduler := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		),
	)

	_, err := scheduler.AddFunc(svc.config.CrawlSchedule, func() {
		if err := svc.RunOnce(ctx); err != nil {
			svc.config.Logger.WithField("err", err).Error(
				"scheduled crawl pass completed with errors",
			)
		}
	})
	if err != nil {
		return fmt.Errorf("scraper: invalid crawl schedule %q: %w", svc.config.CrawlSchedule, err)
	}

	scheduler.Start()

	<-ctx.Done()

	// Wait for a potentially running crawl pass to complete.
	<-scheduler.Stop().Done()

	return nil
}

// RunOnce performs a single crawl pass over all configured institutions in
// their configuration order. An institution failure is logged and collected
// but never aborts the pass for the remaining institutions.
func (svc *Service) RunOnce(ctx context.Context) error {
	svc.config.Logger.Info("started crawl pass")

	startedAt := svc.config.Clock.Now()

	var err error
	for _, target := range svc.config.Institutions {
		numOfProcessed, crawlErr := svc.crawler.CrawlInstitution(ctx, target)
		if crawlErr != nil {
			svc.config.Logger.WithFields(logrus.Fields{
				"institution": target.Slug,
				"err":         crawlErr,
			}).Error("failed to crawl institution")

			err = multierror.Append(err, fmt.Errorf(
				"crawl institution %q: %w", target.Slug, crawlErr,
			))

			continue
		}

		svc.config.Logger.WithFields(logrus.Fields{
			"institution":             target.Slug,
			"processed_product_count": numOfProcessed,
		}).Info("completed institution crawl")
	}

	svc.config.Logger.WithField(
		"elapsed_time", svc.config.Clock.Now().Sub(startedAt).String(),
	).Info("completed crawl pass")

	return err
}
