package provider

// Raw provider batch states. The lifecycle manager maps these onto the
// three-state BatchJob model.
const (
	StateInProgress = "in_progress"
	StateCanceling  = "canceling"
	StateEnded      = "ended"
	StateFailed     = "failed"
	StateExpired    = "expired"
	StateCanceled   = "canceled"
)

// Per-item failure reasons reported in Outcome.Reason.
const (
	ReasonMalformedResponse = "malformed_response"
	ReasonEmptyTopics       = "empty_topics"
)

// ItemRequest is one article's payload in a batch submission. ItemID becomes
// the provider-side custom id and keys the result back to the article.
type ItemRequest struct {
	ItemID   string
	Title    string
	Abstract string
}

// BatchStatus is the provider's view of a submitted batch.
type BatchStatus struct {
	CorrelationKey string
	State          string
	Succeeded      int
	Processing     int
	Errored        int
}

// Outcome is the tagged per-item result: either a topic list or a failure
// reason, never both.
type Outcome struct {
	Topics []string
	Reason string
}

// Succeeded reports whether the outcome carries topics rather than a failure.
func (o Outcome) Succeeded() bool {
	return o.Reason == ""
}

// ItemResult pairs an item id with its outcome.
type ItemResult struct {
	ItemID  string
	Outcome Outcome
}
