package crawler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	check "gopkg.in/check.v1"

	"golang.org/x/text/encoding/charmap"
)

// Initialize and register a pointer instance of the fetchTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(fetchTestSuite))

type fetchTestSuite struct{}

func (s *fetchTestSuite) TestFetchHTMLSendsUserAgent(c *check.C) {
	var receivedUserAgent string

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			receivedUserAgent = r.Header.Get("User-Agent")

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body>ok</body></html>"))
		}))
	defer srv.Close()

	var buf bytes.Buffer
	err := fetchHTML(
		context.TODO(), http.DefaultClient, defaultUserAgent, srv.URL, &buf,
	)
	c.Assert(err, check.IsNil)
	c.Assert(receivedUserAgent, check.Equals, defaultUserAgent)
	c.Assert(buf.String(), check.Equals, "<html><body>ok</body></html>")
}

func (s *fetchTestSuite) TestFetchHTMLWithNonSuccessStatus(c *check.C) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
	defer srv.Close()

	var buf bytes.Buffer
	err := fetchHTML(
		context.TODO(), http.DefaultClient, defaultUserAgent, srv.URL, &buf,
	)
	c.Assert(err, check.ErrorMatches, ".*unexpected response status: 404.*")
}

func (s *fetchTestSuite) TestFetchHTMLWithNonHTMLContentType(c *check.C) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4"))
		}))
	defer srv.Close()

	var buf bytes.Buffer
	err := fetchHTML(
		context.TODO(), http.DefaultClient, defaultUserAgent, srv.URL, &buf,
	)
	c.Assert(err, check.ErrorMatches, ".*unexpected content type.*")
}

func (s *fetchTestSuite) TestFetchHTMLDecodesResponseEncoding(c *check.C) {
	// "Crédito" encoded as ISO-8859-1.
	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("<html><body>Crédito</body></html>"))
	c.Assert(err, check.IsNil)

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write(encoded)
		}))
	defer srv.Close()

	var buf bytes.Buffer
	err = fetchHTML(
		context.TODO(), http.DefaultClient, defaultUserAgent, srv.URL, &buf,
	)
	c.Assert(err, check.IsNil)
	c.Assert(buf.String(), check.Equals, "<html><body>Crédito</body></html>")
}
