package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const dateKeyLayout = "20060102"

// DateKey identifies the calendar day an artifact belongs to, formatted
// YYYYMMDD in the pipeline timezone.
type DateKey string

var dateKeyExpr = regexp.MustCompile(`^\d{8}$`)

// DateKeyAt derives the key for an instant in the given timezone.
func DateKeyAt(t time.Time, loc *time.Location) DateKey {
	if loc == nil {
		loc = time.UTC
	}
	return DateKey(t.In(loc).Format(dateKeyLayout))
}

// Valid reports whether the key is a well-formed YYYYMMDD string.
func (k DateKey) Valid() bool {
	if !dateKeyExpr.MatchString(string(k)) {
		return false
	}
	_, err := time.Parse(dateKeyLayout, string(k))
	return err == nil
}

// Prev returns the key of the preceding calendar day.
func (k DateKey) Prev() DateKey {
	t, err := time.Parse(dateKeyLayout, string(k))
	if err != nil {
		return k
	}
	return DateKey(t.AddDate(0, 0, -1).Format(dateKeyLayout))
}

func (k DateKey) String() string { return string(k) }

// Stage names a pipeline step. The values double as the stage tag used in
// job-run records and alert subjects.
type Stage string

const (
	StageDateCheck    Stage = "date-check"
	StageCrawl        Stage = "crawl"
	StageCopyNewslist Stage = "copy-newslist"
	StageExtract      Stage = "get-article"
	StageSummarize    Stage = "ai-summarize"
	StageCopyArticle  Stage = "copy-article"
	StageDeploy       Stage = "deploy"
	StageHealthCheck  Stage = "health-check"
	StageCleanup      Stage = "cleanup"
)

// Artifact naming convention shared by every stage. Sequence suffixes are
// zero-padded so lexicographic order equals chronological order.
const (
	summarySuffix  = "-ai-summarize.md"
	FrontArticle   = "0101"
	newslistFormat = "%s.md"
)

var (
	rawExpr       = regexp.MustCompile(`^\d{8}-\d{4}\.html$`)
	extractedExpr = regexp.MustCompile(`^\d{8}-\d{4}\.md$`)
	summaryExpr   = regexp.MustCompile(`^\d{8}-\d{4}-ai-summarize\.md$`)
)

// NewslistName is the aggregate daily newslist file, e.g. 20250408.md.
func NewslistName(key DateKey) string {
	return fmt.Sprintf(newslistFormat, key)
}

// RawArticleName is the raw crawled article page, e.g. 20250408-0101.html.
func RawArticleName(key DateKey, seq string) string {
	return fmt.Sprintf("%s-%s.html", key, seq)
}

// ExtractedName is the readable markdown rendering of one article,
// e.g. 20250408-0101.md.
func ExtractedName(key DateKey, seq string) string {
	return fmt.Sprintf("%s-%s.md", key, seq)
}

// SummaryName derives the AI-summary artifact from its source name,
// e.g. 20250408-0101.md -> 20250408-0101-ai-summarize.md.
func SummaryName(extracted string) string {
	return strings.TrimSuffix(extracted, ".md") + summarySuffix
}

// MatchNewslist reports whether name is the newslist artifact for key.
func MatchNewslist(key DateKey, name string) bool {
	return name == NewslistName(key)
}

// MatchRaw reports whether name is a raw crawled article page for key.
func MatchRaw(key DateKey, name string) bool {
	return strings.HasPrefix(name, string(key)+"-") && rawExpr.MatchString(name)
}

// MatchExtracted reports whether name is a summarizable article artifact
// for key. Summary outputs themselves never match.
func MatchExtracted(key DateKey, name string) bool {
	return strings.HasPrefix(name, string(key)+"-") && extractedExpr.MatchString(name)
}

// MatchSummary reports whether name is a summary artifact for key.
func MatchSummary(key DateKey, name string) bool {
	return strings.HasPrefix(name, string(key)+"-") && summaryExpr.MatchString(name)
}

// InRetentionWindow reports whether an artifact name is still covered by the
// sliding two-day retention window ending at today.
func InRetentionWindow(today DateKey, name string) bool {
	return strings.HasPrefix(name, string(today)) || strings.HasPrefix(name, string(today.Prev()))
}
