package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	check "gopkg.in/check.v1"
)

// Initialize and register a pointer instance of the pdfTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(pdfTestSuite))

type pdfTestSuite struct{}

func (s *pdfTestSuite) TestSanitizeFilename(c *check.C) {
	specs := []struct {
		url      string
		expected string
	}{
		{"https://www.bbva.mx/docs/terms.pdf", "terms-pdf"},
		{"https://www.bbva.mx/docs/Annual%20Fees.pdf", "annual-fees-pdf"},
		{"https://www.bbva.mx/", "https-www-bbva-mx"},
	}

	for _, spec := range specs {
		c.Assert(
			sanitizeFilename(spec.url), check.Equals, spec.expected,
			check.Commentf("url: %s", spec.url),
		)
	}
}

func (s *pdfTestSuite) TestSanitizeFilenameNeverEscapesDestDir(c *check.C) {
	crafted := []string{
		"https://evil.com/../../etc/passwd.pdf",
		"https://evil.com/..%2F..%2Fetc%2Fpasswd.pdf",
		"https://evil.com/docs/../../../root/.ssh/key.pdf",
		"https://evil.com/....pdf",
	}

	destDir := c.MkDir()
	for _, url := range crafted {
		name := sanitizeFilename(url)

		c.Assert(strings.Contains(name, "/"), check.Equals, false)
		c.Assert(strings.Contains(name, ".."), check.Equals, false)

		// The joined path must remain inside the destination directory.
		joined := filepath.Clean(filepath.Join(destDir, name))
		c.Assert(
			strings.HasPrefix(joined, destDir), check.Equals, true,
			check.Commentf("url: %s escaped to %s", url, joined),
		)
	}
}

func (s *pdfTestSuite) TestDownloadPDF(c *check.C) {
	content := strings.Repeat("x", downloadChunkSize*3+17)

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte(content))
		}))
	defer srv.Close()

	dataDir := c.MkDir()
	localPath, err := downloadPDF(
		context.TODO(), http.DefaultClient, defaultUserAgent,
		srv.URL+"/docs/terms.pdf", dataDir,
	)
	c.Assert(err, check.IsNil)
	c.Assert(localPath, check.Equals, filepath.Join(dataDir, "terms-pdf"))

	written, err := os.ReadFile(localPath)
	c.Assert(err, check.IsNil)
	c.Assert(string(written), check.Equals, content)
}

func (s *pdfTestSuite) TestDownloadPDFSkipsExistingFile(c *check.C) {
	var requests int

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requests++
			_, _ = w.Write([]byte("remote content"))
		}))
	defer srv.Close()

	dataDir := c.MkDir()
	localPath := filepath.Join(dataDir, "terms-pdf")

	err := os.WriteFile(localPath, []byte("existing content"), 0o644)
	c.Assert(err, check.IsNil)

	downloaded, err := downloadPDF(
		context.TODO(), http.DefaultClient, defaultUserAgent,
		srv.URL+"/docs/terms.pdf", dataDir,
	)
	c.Assert(err, check.IsNil)
	c.Assert(downloaded, check.Equals, localPath)
	c.Assert(requests, check.Equals, 0)

	// The existing file must be left untouched.
	written, err := os.ReadFile(localPath)
	c.Assert(err, check.IsNil)
	c.Assert(string(written), check.Equals, "existing content")
}

func (s *pdfTestSuite) TestDownloadPDFWithServerError(c *check.C) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
	defer srv.Close()

	dataDir := c.MkDir()
	_, err := downloadPDF(
		context.TODO(), http.DefaultClient, defaultUserAgent,
		srv.URL+"/docs/terms.pdf", dataDir,
	)
	c.Assert(err, check.ErrorMatches, ".*unexpected response status: 500.*")

	// No file should be left behind for failed downloads.
	_, err = os.Stat(filepath.Join(dataDir, "terms-pdf"))
	c.Assert(os.IsNotExist(err), check.Equals, true)
}
