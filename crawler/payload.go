package crawler

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mycok/fincrawl/pipeline"
)

var (
	_ pipeline.Payload = (*productPayload)(nil)

	payloadPool = sync.Pool{
		New: func() interface{} {
			return new(productPayload)
		},
	}
)

type productPayload struct {
	InstitutionID   uuid.UUID // populated by the input source (pipeline.Source) type.
	InstitutionSlug string    // populated by the input source (pipeline.Source) type.

	URL           string       // populated by the input source (pipeline.Source) type.
	ProductID     uuid.UUID    // populated by the product recorder type.
	StoredTitle   string       // populated by the product recorder type.
	LastSeen      time.Time    // populated by the product recorder type.
	RawContent    bytes.Buffer // populated by the page fetcher type.
	Title         string       // populated by the content extractor type.
	PDFLinks      []string     // populated by the content extractor type.
}

// Clone returns a deep-copy of the original payload.
func (p *productPayload) Clone() pipeline.Payload {
	payloadClone := payloadPool.Get().(*productPayload)

	payloadClone.InstitutionID = p.InstitutionID
	payloadClone.InstitutionSlug = p.InstitutionSlug
	payloadClone.URL = p.URL
	payloadClone.ProductID = p.ProductID
	payloadClone.StoredTitle = p.StoredTitle
	payloadClone.LastSeen = p.LastSeen
	payloadClone.Title = p.Title
	payloadClone.PDFLinks = append([]string(nil), p.PDFLinks...)

	_, err := io.Copy(&payloadClone.RawContent, &p.RawContent)
	if err != nil {
		panic(fmt.Sprintf("[BUG]::error cloning payload raw content: %v", err))
	}

	return payloadClone
}

// MarkAsProcessed is invoked by the stage / stage runner when the payload
// either reaches the pipeline sink or it gets discarded by one of the
// pipeline stages.
func (p *productPayload) MarkAsProcessed() {
	p.InstitutionID = uuid.Nil
	p.InstitutionSlug = p.InstitutionSlug[:0]
	p.URL = p.URL[:0]
	p.ProductID = uuid.Nil
	p.StoredTitle = p.StoredTitle[:0]
	p.LastSeen = time.Time{}
	p.RawContent.Reset()
	p.Title = p.Title[:0]
	p.PDFLinks = p.PDFLinks[:0]

	// Put back a reset pointer to product payload into the pool for re-use.
	payloadPool.Put(p)
}
