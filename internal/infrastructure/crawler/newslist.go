// Package crawler holds the built-in collaborator adapters that fetch the
// daily paper edition and render its artifacts.
package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

const (
	versionSelector = "div.swiper-box a"
	newsSelector    = "div.news ul a"
)

// EditionScanner crawls the paper edition layout pages for one day and builds
// the aggregate newslist plus the raw front-page article.
type EditionScanner struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

var _ ports.Crawler = (*EditionScanner)(nil)

// NewEditionScanner wires an HTTP client against the layout base URL,
// e.g. http://paper.people.com.cn/rmrb/pc/layout.
func NewEditionScanner(client *http.Client, baseURL string, logger *slog.Logger) *EditionScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EditionScanner{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

type newsItem struct {
	Title string
	URL   string
}

type section struct {
	Title string
	URL   string
	News  []newsItem
}

// CrawlDaily fetches the edition for key and returns the newslist markdown
// plus the raw HTML of the first article on the first page.
func (s *EditionScanner) CrawlDaily(ctx context.Context, key domain.DateKey) (ports.CrawlResult, error) {
	frontURL := s.layoutURL(key, "node_01.html")

	doc, finalURL, err := s.fetchDocument(ctx, frontURL)
	if err != nil {
		return ports.CrawlResult{}, fmt.Errorf("fetch edition front page: %w", err)
	}

	sections, err := s.extractSections(ctx, doc, finalURL)
	if err != nil {
		return ports.CrawlResult{}, err
	}
	if len(sections) == 0 {
		return ports.CrawlResult{}, fmt.Errorf("no sections found for %s", key)
	}

	result := ports.CrawlResult{
		Newslist:   []byte(buildNewslist(key, sections)),
		ArticleSeq: domain.FrontArticle,
	}

	first := firstArticleURL(sections)
	if first == "" {
		return result, fmt.Errorf("no articles found for %s", key)
	}

	rawHTML, err := s.fetchRaw(ctx, first)
	if err != nil {
		return result, fmt.Errorf("fetch first article: %w", err)
	}
	result.RawArticle = rawHTML

	s.logger.Debug("edition crawled", "key", key, "sections", len(sections), "article", first)
	return result, nil
}

// layoutURL builds {base}/{YYYYMM}/{DD}/{page} the way the paper archive
// organizes editions.
func (s *EditionScanner) layoutURL(key domain.DateKey, page string) string {
	k := string(key)
	return fmt.Sprintf("%s/%s/%s/%s", s.baseURL, k[:6], k[6:8], page)
}

func (s *EditionScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("get %s: %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, resp.Request.URL.String(), nil
}

func (s *EditionScanner) fetchRaw(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: %s", pageURL, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}
	return raw, nil
}

// extractSections walks the front page's section navigation and collects the
// news links of every section page.
func (s *EditionScanner) extractSections(ctx context.Context, front *goquery.Document, frontURL string) ([]section, error) {
	base, err := url.Parse(frontURL)
	if err != nil {
		return nil, fmt.Errorf("parse front URL: %w", err)
	}

	var sections []section
	front.Find(versionSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return
		}
		sections = append(sections, section{Title: title, URL: resolveRef(base, href)})
	})

	for i := range sections {
		page := front
		if i > 0 {
			page, _, err = s.fetchDocument(ctx, sections[i].URL)
			if err != nil {
				return nil, fmt.Errorf("section %s: %w", sections[i].Title, err)
			}
		}
		sections[i].News = extractNews(page, base)
	}

	return sections, nil
}

func extractNews(doc *goquery.Document, base *url.URL) []newsItem {
	var items []newsItem
	doc.Find(newsSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return
		}
		items = append(items, newsItem{Title: title, URL: resolveRef(base, href)})
	})
	return items
}

func resolveRef(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func firstArticleURL(sections []section) string {
	for _, sec := range sections {
		if len(sec.News) > 0 {
			return sec.News[0].URL
		}
	}
	return ""
}

// buildNewslist renders the aggregate daily markdown consumed by the site.
func buildNewslist(key domain.DateKey, sections []section) string {
	k := string(key)
	display := fmt.Sprintf("%s-%s-%s", k[:4], k[4:6], k[6:8])

	var b strings.Builder
	fmt.Fprintf(&b, "# 人民日报 %s\n\n", display)

	for _, sec := range sections {
		fmt.Fprintf(&b, "## [%s](%s)\n\n", sec.Title, sec.URL)
		for _, item := range sec.News {
			fmt.Fprintf(&b, "- [%s](%s)\n", item.Title, item.URL)
		}
		b.WriteString("\n")
	}

	b.WriteString("数据来源: 人民日报 - [http://paper.people.com.cn](http://paper.people.com.cn)\n")
	return b.String()
}
