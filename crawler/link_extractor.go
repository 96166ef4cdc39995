package crawler

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var repeatedSpaceRegex = regexp.MustCompile(`\s+`)

// extractProductLinks scans the anchor tags of the provided document and
// returns the absolute URLs of the hrefs whose original, unresolved value
// matches at least one of the institution's product patterns.
// The returned list preserves the first-seen order of the links and contains
// no duplicates.
func extractProductLinks(
	doc *goquery.Document, base *url.URL, patterns []*regexp.Regexp,
) []string {

	var links []string
	seenMap := map[string]struct{}{}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")

		// Patterns are matched against the raw href exactly as it appears
		// on the page, before resolving it against the base URL.
		if !matchesAny(href, patterns) {
			return
		}

		resolved := resolveToAbsoluteURL(base, href)
		if resolved == nil {
			return
		}

		// Truncate / remove html anchors.
		// ie, in this ["https://example.com/loans#fees"] url, the [#fees]
		// is dropped.
		resolved.Fragment = ""

		resolvedString := resolved.String()

		// Check for duplicates.
		if _, exists := seenMap[resolvedString]; exists {
			return
		}

		seenMap[resolvedString] = struct{}{}
		links = append(links, resolvedString)
	})

	return links
}

// extractPDFLinks scans the anchor tags of the provided document and returns
// the absolute URLs of the hrefs that point to PDF files. The returned list
// preserves the first-seen order of the links and contains no duplicates.
func extractPDFLinks(doc *goquery.Document, base *url.URL) []string {
	var links []string
	seenMap := map[string]struct{}{}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !isPDFLink(href) {
			return
		}

		resolved := resolveToAbsoluteURL(base, href)
		if resolved == nil {
			return
		}

		resolved.Fragment = ""

		resolvedString := resolved.String()
		if _, exists := seenMap[resolvedString]; exists {
			return
		}

		seenMap[resolvedString] = struct{}{}
		links = append(links, resolvedString)
	})

	return links
}

// extractPageTitle returns the text of the first h1 or title element of the
// provided document in document order. The returned value is stripped of any
// markup and repeated whitespace.
func extractPageTitle(doc *goquery.Document, policy *bluemonday.Policy) string {
	title := doc.Find("h1, title").First().Text()

	cleanTitle := repeatedSpaceRegex.ReplaceAllString(policy.Sanitize(title), " ")

	return strings.TrimSpace(html.UnescapeString(cleanTitle))
}

// isPDFLink reports whether the provided href points to a PDF file. The
// check is case-insensitive and ignores any query string.
func isPDFLink(href string) bool {
	if idx := strings.IndexByte(href, '?'); idx != -1 {
		href = href[:idx]
	}

	return strings.HasSuffix(strings.ToLower(href), ".pdf")
}

func matchesAny(href string, patterns []*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(href) {
			return true
		}
	}

	return false
}

// resolveToAbsoluteURL expands target into an absolute URL using the
// following rules:
//   - targets starting with '//' are treated as absolute URLs that inherit
//     the protocol / scheme from relativeTo.
//   - all other targets are assumed to be relative to relativeTo.
//
// If the target URL cannot be parsed, a nil URL will be returned.
func resolveToAbsoluteURL(relativeTo *url.URL, target string) *url.URL {
	targetLength := len(target)
	// Check if the target is an empty string.
	if targetLength == 0 {
		return nil
	}

	// Check for network path references. ["//example.com"]
	if targetLength >= 2 && target[0] == '/' && target[1] == '/' {
		target = relativeTo.Scheme + ":" + target
	}

	parsedURL, err := url.Parse(target)
	if err != nil {
		return nil
	}

	resolved := relativeTo.ResolveReference(parsedURL)

	// Skip links with non HTTP(S) schemes.
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}

	return resolved
}
