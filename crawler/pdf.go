package crawler

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/ledongthuc/pdf"
)

// Read and write remote document streams in 8KB chunks.
const downloadChunkSize = 8192

// Upper bound for the length of sanitized file names, exclusive of the
// file extension.
const maxFilenameLength = 60

// sanitizeFilename derives a local file name for the document at rawURL by
// slugifying the base name of the URL path, falling back to a slug of the
// entire URL for paths without a usable base name. The result carries no
// path separators or parent references which keeps crafted URLs from
// escaping the download directory.
func sanitizeFilename(rawURL string) string {
	var base string
	if parsed, err := url.Parse(rawURL); err == nil {
		base = path.Base(parsed.Path)
		if base == "." || base == "/" {
			base = ""
		}
	}

	name := slug.Make(base)
	if name == "" {
		name = slug.Make(rawURL)
	}

	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}

	return name
}

// downloadPDF streams the document at rawURL into dataDir and returns the
// local path of the downloaded file. Downloads are skipped for documents
// that already exist on disk. Partially written files are removed when the
// transfer fails midway.
func downloadPDF(
	ctx context.Context, getter URLGetter, userAgent, rawURL, dataDir string,
) (string, error) {

	localPath := filepath.Join(dataDir, sanitizeFilename(rawURL))

	// Skip the download for previously downloaded documents.
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	resp, err := fetchURL(ctx, getter, userAgent, rawURL)
	if err != nil {
		return "", err
	}
	defer drainAndClose(resp.Body)

	f, err := os.Create(localPath)
	if err != nil {
		return "", err
	}

	buf := make([]byte, downloadChunkSize)
	if _, err := io.CopyBuffer(f, resp.Body, buf); err != nil {
		_ = f.Close()
		// Remove the partial file so the next run retries the download.
		_ = os.Remove(localPath)

		return "", err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(localPath)

		return "", err
	}

	return localPath, nil
}

// extractPDFText returns the plain-text content of the PDF file at the
// provided path, concatenated page by page.
func extractPDFText(localPath string) (string, error) {
	f, reader, err := pdf.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", pageNum, err)
		}

		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return strings.TrimSpace(builder.String()), nil
}
