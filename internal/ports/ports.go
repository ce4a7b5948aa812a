package ports

import (
	"context"
	"errors"
	"time"

	"NewsPipeline/internal/domain"
)

// ErrNotFound is returned when an artifact cannot be resolved on a branch.
var ErrNotFound = errors.New("artifact not found")

// ErrRevisionConflict is returned by compare-and-swap writes when the caller's
// revision is stale; the writer must re-read and retry.
var ErrRevisionConflict = errors.New("revision conflict")

// Revision is an opaque optimistic-concurrency token. Zero means "entry must
// not exist yet".
type Revision uint64

// Entry describes one stored artifact without its content.
type Entry struct {
	Name     string
	Revision Revision
}

// ArtifactStore is the versioned, branch-namespaced artifact store shared by
// all jobs. Writes are compare-and-swap on the revision token; the store's
// conflict detection is the pipeline's only concurrency-control primitive.
type ArtifactStore interface {
	Get(ctx context.Context, branch, name string) ([]byte, Revision, error)
	Put(ctx context.Context, branch, name string, content []byte, expected Revision) (Revision, error)
	Delete(ctx context.Context, branch, name string) error
	List(ctx context.Context, branch, prefix string) ([]Entry, error)

	// Reconcile copies every producer-branch entry over the published branch
	// (producer-wins) and returns the number of entries written.
	Reconcile(ctx context.Context, producer, published string) (int, error)
}

// EventHandler consumes one dispatched event.
type EventHandler func(ctx context.Context, ev domain.Event) error

// Dispatcher is the durable event queue chaining stages together. Control
// events are deduplicated by (name, date key); alert events are not.
type Dispatcher interface {
	Publish(ctx context.Context, ev domain.Event) error
	Subscribe(name string, handler EventHandler)
	// Redeliver replays events accepted but not yet delivered, e.g. after a
	// process restart.
	Redeliver(ctx context.Context) error
}

// AlertNotifier delivers alert payloads to the configured channel.
type AlertNotifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// CrawlResult is the output of one daily crawl: the aggregate newslist plus
// the raw front-page article.
type CrawlResult struct {
	Newslist   []byte
	RawArticle []byte
	ArticleSeq string
}

// Crawler fetches the day's edition and builds the newslist artifact.
type Crawler interface {
	CrawlDaily(ctx context.Context, key domain.DateKey) (CrawlResult, error)
}

// ArticleExtractor turns a raw crawled page into readable article markdown.
type ArticleExtractor interface {
	ExtractArticle(ctx context.Context, key domain.DateKey, rawHTML []byte) ([]byte, error)
}

// Summarizer produces the AI summary for one extracted article.
type Summarizer interface {
	Summarize(ctx context.Context, name string, content []byte) ([]byte, error)
}

// SiteDeployer builds and publishes the static site under a wall-clock budget.
type SiteDeployer interface {
	Deploy(ctx context.Context) error
}

// RunJournal persists job runs and their alerts for audit and history.
// Implementations must tolerate an absent backend as a no-op.
type RunJournal interface {
	RecordRun(ctx context.Context, run domain.JobRun) error
	RecordAlert(ctx context.Context, runID string, alert domain.Alert) error
}

// Scheduler drives the periodic jobs (date checker, health checks, cleanup).
type Scheduler interface {
	Add(spec string, job func(time.Time)) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
