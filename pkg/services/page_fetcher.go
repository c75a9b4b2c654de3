package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gipoly/gipoly-engine/pkg/models"
)

const (
	pageFetchTimeout = 10 * time.Second
	maxPageBytes     = 5 << 20
	maxPageContent   = 8000
	maxReviews       = 10
	maxFeatures      = 20
	maxPrices        = 5
	pageUserAgent    = "Mozilla/5.0 (compatible; GipolyBot/1.0; +https://gipoly.com/bot)"
)

// errBlockedAddress is returned when a page resolves to a non-public address.
var errBlockedAddress = errors.New("address is not publicly routable")

// PageFetcher downloads a product page and extracts what the SEO audit needs.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*models.PageContent, error)
}

// HTTPPageFetcher fetches pages over HTTP and parses them with x/net/html.
type HTTPPageFetcher struct {
	client *http.Client
}

// NewHTTPPageFetcher creates a fetcher. Unless allowPrivate is set, pages that
// resolve to loopback, private or link-local addresses are refused.
func NewHTTPPageFetcher(allowPrivate bool) *HTTPPageFetcher {
	dialer := &net.Dialer{Timeout: pageFetchTimeout}
	if !allowPrivate {
		dialer.Control = func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			ip := net.ParseIP(host)
			if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
				ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
				return fmt.Errorf("%w: %s", errBlockedAddress, host)
			}
			return nil
		}
	}

	return &HTTPPageFetcher{
		client: &http.Client{
			Timeout:   pageFetchTimeout,
			Transport: &http.Transport{DialContext: dialer.DialContext, Proxy: http.ProxyFromEnvironment},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
	}
}

// Fetch implements PageFetcher.
func (f *HTTPPageFetcher) Fetch(ctx context.Context, url string) (*models.PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", pageUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("page returned HTTP %d", resp.StatusCode)
	}

	return ExtractPageContent(io.LimitReader(resp.Body, maxPageBytes))
}

// ExtractPageContent parses an HTML document. Script, style and page chrome
// (nav, header, footer) are ignored. Reviews, features and prices found by
// class name are appended to the text content, which is capped at 8000 characters.
func ExtractPageContent(r io.Reader) (*models.PageContent, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	e := &extractor{seen: make(map[string]bool)}
	e.walk(doc)

	content := strings.Join(strings.Fields(e.text.String()), " ")
	if len(e.reviews) > 0 {
		content += "\n\nReviews:\n" + strings.Join(e.reviews, "\n")
	}
	if len(e.features) > 0 {
		content += "\n\nFeatures:\n" + strings.Join(e.features, "\n")
	}
	if len(e.prices) > 0 {
		content += "\n\nPrices:\n" + strings.Join(e.prices, "\n")
	}
	content = truncateRunes(content, maxPageContent)

	title := strings.TrimSpace(e.title)
	return &models.PageContent{
		Title:         title,
		Description:   strings.TrimSpace(e.description),
		ContentLength: utf8.RuneCountInString(content),
		Content:       content,
		Reviews:       e.reviews,
		Features:      e.features,
		Prices:        e.prices,
	}, nil
}

type extractor struct {
	text        strings.Builder
	title       string
	description string
	reviews     []string
	features    []string
	prices      []string
	seen        map[string]bool
}

func (e *extractor) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Header, atom.Footer, atom.Template:
			return
		case atom.Title:
			if e.title == "" {
				e.title = nodeText(n)
			}
			return
		case atom.Meta:
			if strings.EqualFold(attr(n, "name"), "description") && e.description == "" {
				e.description = attr(n, "content")
			}
		}
		e.classify(n)
	}

	if n.Type == html.TextNode {
		e.text.WriteString(n.Data)
		e.text.WriteByte(' ')
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walk(c)
	}
}

// classify records n as a review, feature or price based on its class,
// data attributes and tag.
func (e *extractor) classify(n *html.Node) {
	class := strings.ToLower(attr(n, "class"))
	testID := strings.ToLower(attr(n, "data-testid"))

	isReview := containsAny(class, "review", "comment", "rating", "feedback") ||
		containsAny(testID, "review", "rating")
	isFeature := n.DataAtom == atom.Li || containsAny(class, "feature", "spec", "detail", "property")
	isPrice := containsAny(class, "price", "cost", "amount") || hasAttr(n, "data-price")

	if !isReview && !isFeature && !isPrice {
		return
	}

	text := strings.Join(strings.Fields(nodeText(n)), " ")
	switch {
	case isReview && len(e.reviews) < maxReviews && len(text) > 10:
		e.add(&e.reviews, "r:", text)
	case isPrice && len(e.prices) < maxPrices && strings.IndexFunc(text, unicode.IsDigit) >= 0:
		e.add(&e.prices, "p:", text)
	case isFeature && len(e.features) < maxFeatures && len(text) > 5 && len(text) < 200:
		e.add(&e.features, "f:", text)
	}
}

func (e *extractor) add(list *[]string, kind, text string) {
	if e.seen[kind+text] {
		return
	}
	e.seen[kind+text] = true
	*list = append(*list, text)
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	if s == "" {
		return false
	}
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
