package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// Selector fallbacks for the paper's article pages; the first match wins.
var (
	titleSelectors   = []string{"div.article h1", "div.article-box h1", "h2.title", "title"}
	contentSelectors = []string{"div#ozoom", "div.article", "div.article-content", "div.content"}
)

// ArticleExtractor turns a raw crawled article page into readable markdown:
// goquery locates the content container, html-to-markdown renders it.
type ArticleExtractor struct {
	converter *md.Converter
	logger    *slog.Logger
}

var _ ports.ArticleExtractor = (*ArticleExtractor)(nil)

// NewArticleExtractor builds the extractor.
func NewArticleExtractor(logger *slog.Logger) *ArticleExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArticleExtractor{
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// ExtractArticle parses the raw page, extracts title and body, and renders
// the markdown artifact.
func (e *ArticleExtractor) ExtractArticle(ctx context.Context, key domain.DateKey, rawHTML []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse article page: %w", err)
	}

	title := firstText(doc, titleSelectors)
	if title == "" {
		title = "无标题"
	}

	content := firstSelection(doc, contentSelectors)
	if content == nil {
		return nil, fmt.Errorf("no article content found for %s", key)
	}

	body := e.converter.Convert(content)
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("article body empty for %s", key)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")

	e.logger.Debug("article extracted", "key", key, "title", title, "bytes", b.Len())
	return []byte(b.String()), nil
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstSelection(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() > 0 {
			return sel
		}
	}
	return nil
}
