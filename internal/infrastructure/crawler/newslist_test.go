package crawler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const frontPage = `<!DOCTYPE html>
<html><body>
<div class="swiper-box">
  <a href="node_01.html">第01版：要闻</a>
  <a href="node_02.html">第02版：国际</a>
</div>
<div class="news"><ul>
  <a href="art_0101.html">头条文章</a>
  <a href="art_0102.html">二条文章</a>
</ul></div>
</body></html>`

const secondPage = `<!DOCTYPE html>
<html><body>
<div class="news"><ul>
  <a href="art_0201.html">国际要闻</a>
</ul></div>
</body></html>`

const articlePage = `<!DOCTYPE html>
<html><body>
<h2 class="title">头条文章</h2>
<div id="ozoom"><p>正文第一段。</p></div>
</body></html>`

func editionServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/202504/08/node_01.html", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, frontPage)
	})
	mux.HandleFunc("/202504/08/node_02.html", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, secondPage)
	})
	mux.HandleFunc("/202504/08/art_0101.html", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, articlePage)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCrawlDailyBuildsNewslist(t *testing.T) {
	t.Parallel()

	srv := editionServer(t)
	scanner := NewEditionScanner(srv.Client(), srv.URL, quietLogger())

	result, err := scanner.CrawlDaily(context.Background(), "20250408")
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}

	newslist := string(result.Newslist)
	for _, want := range []string{
		"# 人民日报 2025-04-08",
		"## [第01版：要闻](" + srv.URL + "/202504/08/node_01.html)",
		"## [第02版：国际](" + srv.URL + "/202504/08/node_02.html)",
		"- [头条文章](" + srv.URL + "/202504/08/art_0101.html)",
		"- [二条文章](" + srv.URL + "/202504/08/art_0102.html)",
		"- [国际要闻](" + srv.URL + "/202504/08/art_0201.html)",
		"数据来源",
	} {
		if !strings.Contains(newslist, want) {
			t.Errorf("newslist missing %q:\n%s", want, newslist)
		}
	}

	if result.ArticleSeq != "0101" {
		t.Fatalf("expected front article sequence 0101, got %s", result.ArticleSeq)
	}
	if !strings.Contains(string(result.RawArticle), "正文第一段") {
		t.Fatalf("raw article not fetched: %q", result.RawArticle)
	}
}

func TestCrawlDailyMissingEdition(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	scanner := NewEditionScanner(srv.Client(), srv.URL, quietLogger())

	if _, err := scanner.CrawlDaily(context.Background(), "20250408"); err == nil {
		t.Fatal("expected error for an unpublished edition")
	}
}

func TestCrawlDailyEmptyFrontPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "<html><body></body></html>")
	}))
	t.Cleanup(srv.Close)
	scanner := NewEditionScanner(srv.Client(), srv.URL, quietLogger())

	_, err := scanner.CrawlDaily(context.Background(), "20250408")
	if err == nil || !strings.Contains(err.Error(), "no sections") {
		t.Fatalf("expected no-sections error, got %v", err)
	}
}
