package constant

const (
	ChatMessageRoleSystem    = "system"
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleTool      = "tool"

	// ThreadTitleLimit caps how much of the first question becomes the
	// thread title.
	ThreadTitleLimit = 30
)

// IngestionQueueTopic is the watermill topic ingestion batches are published
// to for background processing.
const IngestionQueueTopic = "ingest_batches"
