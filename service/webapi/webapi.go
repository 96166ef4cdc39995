/*
	webapi package implements a read-only JSON API service that exposes
	the crawled catalog of institutions, products and archived documents,
	together with a full-text document search endpoint.
*/

package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mycok/fincrawl/catalog"
	"github.com/mycok/fincrawl/docindex"
)

// institutionResponse serves as the JSON shape of a single institution.
type institutionResponse struct {
	ID      uuid.UUID `json:"id"`
	Slug    string    `json:"slug"`
	Name    string    `json:"name"`
	Country string    `json:"country"`
}

// productResponse serves as the JSON shape of a single product.
type productResponse struct {
	ID            uuid.UUID `json:"id"`
	Slug          string    `json:"slug"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	InstitutionID uuid.UUID `json:"institution_id"`
}

// documentResponse serves as the JSON shape of a single archived document.
type documentResponse struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Version   int       `json:"version"`
	ScrapedAt time.Time `json:"scraped_at"`
	ProductID uuid.UUID `json:"product_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Service represents the web API service for the fincrawl application.
// it satisfies the service.Service interface.
type Service struct {
	config Config
	router *chi.Mux
}

// New validates the provided config, configures routing and returns a
// web API service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("web API service: config validation failed: %w", err)
	}

	svc := &Service{
		config: config,
		router: chi.NewRouter(),
	}

	svc.router.Get("/institutions", svc.listInstitutions)
	svc.router.Get("/institutions/{slug}/products", svc.listProducts)
	svc.router.Get("/products/{id}/documents", svc.listDocuments)
	svc.router.Get("/search", svc.searchDocuments)

	return svc, nil
}

// Name returns the name of the web API service.
func (svc *Service) Name() string { return "web-api" }

// Run rebuilds the search index from the catalog and serves incoming API
// requests until the provided context is cancelled.
func (svc *Service) Run(ctx context.Context) error {
	svc.config.Logger.WithField("listen_addr", svc.config.ListenAddr).Info("starting web API server")

	if err := svc.reindexDocuments(); err != nil {
		return fmt.Errorf("web API service: %w", err)
	}

	l, err := net.Listen("tcp", svc.config.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    svc.config.ListenAddr,
		Handler: svc.router,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err = srv.Serve(l); err == http.ErrServerClosed {
		// Ignore error when the server shuts down.
		err = nil
	}

	return err
}

// reindexDocuments replays every archived catalog document into the
// search index so the index reflects the catalog even after an index
// store restart.
func (svc *Service) reindexDocuments() error {
	started := time.Now()

	it, err := svc.config.CatalogAPI.Documents()
	if err != nil {
		return fmt.Errorf("reindex documents: %w", err)
	}
	defer func() { _ = it.Close() }()

	var indexed int
	for it.Next() {
		doc := it.Document()
		err = svc.config.IndexAPI.Index(&docindex.Document{
			DocID:     doc.ID,
			ProductID: doc.ProductID,
			URL:       doc.URL,
			Content:   doc.Text,
			IndexedAt: doc.ScrapedAt,
		})
		if err != nil {
			return fmt.Errorf("reindex documents: %w", err)
		}

		indexed++
	}

	if err = it.Error(); err != nil {
		return fmt.Errorf("reindex documents: %w", err)
	}

	svc.config.Logger.WithFields(logrus.Fields{
		"indexed_docs": indexed,
		"elapsed_time": time.Since(started).String(),
	}).Info("rebuilt document search index")

	return nil
}

func (svc *Service) listInstitutions(w http.ResponseWriter, r *http.Request) {
	institutions, err := svc.config.CatalogAPI.Institutions()
	if err != nil {
		svc.respondWithInternalError(w, err)

		return
	}

	resp := make([]institutionResponse, 0, len(institutions))
	for _, inst := range institutions {
		resp = append(resp, institutionResponse{
			ID:      inst.ID,
			Slug:    inst.Slug,
			Name:    inst.Name,
			Country: inst.Country,
		})
	}

	svc.respondWithJSON(w, http.StatusOK, resp)
}

func (svc *Service) listProducts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	inst, err := svc.config.CatalogAPI.FindInstitutionBySlug(slug)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			svc.respondWithJSON(w, http.StatusNotFound, errorResponse{Error: "institution not found"})

			return
		}

		svc.respondWithInternalError(w, err)

		return
	}

	products, err := svc.config.CatalogAPI.ProductsByInstitution(inst.ID)
	if err != nil {
		svc.respondWithInternalError(w, err)

		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, product := range products {
		resp = append(resp, productResponse{
			ID:            product.ID,
			Slug:          product.Slug,
			URL:           product.URL,
			Title:         product.Title,
			InstitutionID: product.InstitutionID,
		})
	}

	svc.respondWithJSON(w, http.StatusOK, resp)
}

func (svc *Service) listDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		svc.respondWithJSON(w, http.StatusNotFound, errorResponse{Error: "product not found"})

		return
	}

	if _, err = svc.config.CatalogAPI.FindProduct(id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			svc.respondWithJSON(w, http.StatusNotFound, errorResponse{Error: "product not found"})

			return
		}

		svc.respondWithInternalError(w, err)

		return
	}

	docs, err := svc.config.CatalogAPI.DocumentsByProduct(id)
	if err != nil {
		svc.respondWithInternalError(w, err)

		return
	}

	svc.respondWithJSON(w, http.StatusOK, documentResponses(docs))
}

func (svc *Service) searchDocuments(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		svc.respondWithJSON(w, http.StatusOK, []documentResponse{})

		return
	}

	limit := svc.config.SearchLimit
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			svc.respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit parameter"})

			return
		}

		limit = parsed
	}

	docs, err := svc.searchIndexedDocuments(term, limit)
	if err != nil {
		// Degrade to a substring scan over the catalog whenever the
		// index store is unreachable.
		svc.config.Logger.WithField("err", err).Warn("index search failed, falling back to catalog scan")

		if docs, err = svc.config.CatalogAPI.SearchDocuments(term, limit); err != nil {
			svc.respondWithInternalError(w, err)

			return
		}
	}

	svc.respondWithJSON(w, http.StatusOK, documentResponses(docs))
}

// searchIndexedDocuments queries the full-text index and resolves each
// hit back into its catalog document row so both search paths return
// the exact same document shape.
func (svc *Service) searchIndexedDocuments(term string, limit int) ([]*catalog.Document, error) {
	it, err := svc.config.IndexAPI.Search(docindex.Query{
		Type:       docindex.QueryTypeMatch,
		Expression: term,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = it.Close() }()

	docs := make([]*catalog.Document, 0, limit)
	for len(docs) < limit && it.Next() {
		doc, err := svc.config.CatalogAPI.FindDocument(it.Document().DocID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				// Stale index entry with no matching catalog row.
				continue
			}

			return nil, err
		}

		docs = append(docs, doc)
	}

	if err = it.Error(); err != nil {
		return nil, err
	}

	return docs, nil
}

func documentResponses(docs []*catalog.Document) []documentResponse {
	resp := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, documentResponse{
			ID:        doc.ID,
			URL:       doc.URL,
			Version:   doc.Version,
			ScrapedAt: doc.ScrapedAt,
			ProductID: doc.ProductID,
		})
	}

	return resp
}

func (svc *Service) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		svc.config.Logger.WithField("err", err).Error("failed to encode JSON response")
	}
}

func (svc *Service) respondWithInternalError(w http.ResponseWriter, err error) {
	svc.config.Logger.WithField("err", err).Error("web API request failed")

	svc.respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
