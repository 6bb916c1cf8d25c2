package store

// ConversationLog is one answered question, recorded after the fact.
type ConversationLog struct {
	ID          int32
	UID         string
	Question    string
	Answer      string
	Source      string
	Confidence  float64
	Language    Language
	Intent      string
	DocumentIDs []string
	Degraded    bool
	ErrorCode   string
	LatencyMs   int64
	CreatedTs   int64
}

type FindConversationLog struct {
	UID      *string
	Source   *string
	Language *Language
	Limit    int
}
