package domain

// Event names carried by the dispatcher. These are the chain's control
// signals; each stage consumes exactly one and emits at most one.
const (
	EventRunCrawler    = "run-crawler"
	EventCopyNewslist  = "copy-newslist"
	EventRunGetArticle = "run-get-article"
	EventAISummarize   = "ai-summarize"
	EventCopyArticle   = "copy-article"
	EventDeployTrigger = "deploy-trigger"
	EventSendAlert     = "send-email-alert"
)

// Event is one pipeline signal. Key scopes the event to a processing day and
// forms the idempotency key (Name, Key) used for dispatch deduplication.
// Alert events carry a payload and are exempt from deduplication.
type Event struct {
	Name  string
	Key   DateKey
	Alert *Alert
}

// ControlEvent reports whether the event drives the stage chain, as opposed
// to the out-of-band alert channel.
func (e Event) ControlEvent() bool {
	return e.Name != EventSendAlert
}

// AlertLevel classifies an alert.
type AlertLevel string

const (
	AlertInfo  AlertLevel = "Info"
	AlertWarn  AlertLevel = "Warn"
	AlertError AlertLevel = "Error"
)

// Alert is the payload of a send-email-alert event: a classification plus a
// human-readable subject and detail body.
type Alert struct {
	Level   AlertLevel
	Subject string
	Body    string
}
