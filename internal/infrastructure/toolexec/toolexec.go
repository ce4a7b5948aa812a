// Package toolexec adapts the external crawler CLI (subcommands crawl,
// get-article, ai-summarize) to the collaborator ports. Exit code zero means
// success, anything else is a stage failure for the retry wrapper upstream.
package toolexec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
	"NewsPipeline/pkg/logger"
)

// Tool runs the external crawler binary with a scratch output directory per
// invocation and lifts the produced dated files into artifact contents.
type Tool struct {
	path   string
	apiKey string
}

var (
	_ ports.Crawler          = (*Tool)(nil)
	_ ports.ArticleExtractor = (*Tool)(nil)
	_ ports.Summarizer       = (*Tool)(nil)
)

// New wires the binary path; apiKey is forwarded to the ai-summarize
// subcommand.
func New(path, apiKey string) *Tool {
	return &Tool{path: path, apiKey: apiKey}
}

func (t *Tool) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, t.path, args...)
	cmd.Stdout = logger.NewWriter("crawler-tool")
	cmd.Stderr = logger.NewWriter("crawler-tool")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", filepath.Base(t.path), args[0], err)
	}
	return nil
}

// CrawlDaily runs `crawl -d <key> -o <dir>` and reads the newslist plus the
// raw front article from the output directory.
func (t *Tool) CrawlDaily(ctx context.Context, key domain.DateKey) (ports.CrawlResult, error) {
	dir, err := os.MkdirTemp("", "crawl-")
	if err != nil {
		return ports.CrawlResult{}, fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := t.run(ctx, "crawl", "-d", string(key), "-o", dir); err != nil {
		return ports.CrawlResult{}, err
	}

	newslist, err := os.ReadFile(filepath.Join(dir, domain.NewslistName(key)))
	if err != nil {
		return ports.CrawlResult{}, fmt.Errorf("read newslist output: %w", err)
	}

	result := ports.CrawlResult{Newslist: newslist, ArticleSeq: domain.FrontArticle}

	rawName := latestMatch(dir, key, domain.MatchRaw)
	if rawName != "" {
		raw, err := os.ReadFile(filepath.Join(dir, rawName))
		if err != nil {
			return ports.CrawlResult{}, fmt.Errorf("read raw article output: %w", err)
		}
		result.RawArticle = raw
		result.ArticleSeq = seqOf(rawName)
	}

	return result, nil
}

// ExtractArticle runs `get-article -o <dir>` and reads the extracted
// markdown. The tool fetches the article itself; the stored raw page is not
// forwarded.
func (t *Tool) ExtractArticle(ctx context.Context, key domain.DateKey, _ []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "get-article-")
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := t.run(ctx, "get-article", "-d", string(key), "-o", dir); err != nil {
		return nil, err
	}

	name := latestMatch(dir, key, domain.MatchExtracted)
	if name == "" {
		return nil, fmt.Errorf("tool produced no article markdown for %s", key)
	}
	return os.ReadFile(filepath.Join(dir, name))
}

// Summarize stages the source file into a scratch directory, runs
// `ai-summarize <key> -o <dir>`, and reads the summary the tool wrote next
// to it.
func (t *Tool) Summarize(ctx context.Context, name string, content []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "ai-summarize-")
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		return nil, fmt.Errorf("stage %s: %w", name, err)
	}

	if err := t.run(ctx, "ai-summarize", t.apiKey, "-o", dir); err != nil {
		return nil, err
	}

	summary, err := os.ReadFile(filepath.Join(dir, domain.SummaryName(name)))
	if err != nil {
		return nil, fmt.Errorf("read summary output: %w", err)
	}
	return summary, nil
}

// latestMatch returns the lexicographically greatest file in dir matching the
// pattern for key or, failing that, for the previous day.
func latestMatch(dir string, key domain.DateKey, pattern func(domain.DateKey, string) bool) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, day := range []domain.DateKey{key, key.Prev()} {
		latest := ""
		for _, name := range names {
			if pattern(day, name) {
				latest = name
			}
		}
		if latest != "" {
			return latest
		}
	}
	return ""
}

// seqOf extracts the 4-digit sequence from a dated name like
// 20250408-0101.html.
func seqOf(name string) string {
	if len(name) < 13 {
		return domain.FrontArticle
	}
	return name[9:13]
}
