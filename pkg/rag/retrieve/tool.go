package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/search"

	"github.com/google/uuid"
)

const (
	// ToolName is the identifier the router model calls to search documents.
	ToolName = "search_documents"

	// EmptySentinel is the exact string returned when nothing matches; the
	// grader treats it like an empty context.
	EmptySentinel = "No relevant documents found."

	passageSeparator = "\n\n---\n\n"
)

var toolParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "Search query to find relevant passages in the user's documents"
		}
	},
	"required": ["query"]
}`)

// Definition is the tool surface handed to the router model.
func Definition() llm.Tool {
	return llm.Tool{
		Name:        ToolName,
		Description: "Search the user's uploaded documents for passages relevant to a query. Use this whenever the question may be answered by document content.",
		Parameters:  toolParameters,
	}
}

// Tool wraps the hybrid index as a callable action. The tenant scope comes
// from the calling context, never from tool arguments.
type Tool struct {
	index *search.HybridIndex
	topK  int
}

func NewTool(index *search.HybridIndex, topK int) *Tool {
	if topK <= 0 {
		topK = search.DefaultTopK
	}
	return &Tool{
		index: index,
		topK:  topK,
	}
}

// Run executes a search for the tenant and formats the hits as a single
// context string, or returns the sentinel when nothing matched.
func (t *Tool) Run(ctx context.Context, tenantId uuid.UUID, query string) (string, error) {
	results, err := t.index.Query(ctx, tenantId, query, t.topK)
	if err != nil {
		return "", fmt.Errorf("document search: %w", err)
	}
	return Format(results), nil
}

// ParseArgs extracts the query string from a model tool call.
func ParseArgs(args json.RawMessage) (string, error) {
	var parsed struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", fmt.Errorf("malformed %s arguments: %w", ToolName, err)
	}
	if parsed.Query == "" {
		return "", fmt.Errorf("%s called without a query", ToolName)
	}
	return parsed.Query, nil
}

// Format joins passages with the separator, or yields the sentinel.
func Format(results []*entity.ScoredChunk) string {
	if len(results) == 0 {
		return EmptySentinel
	}
	passages := make([]string, len(results))
	for i, sc := range results {
		passages[i] = sc.Chunk.Content
	}
	return strings.Join(passages, passageSeparator)
}

// IsEmpty reports whether a context string carries no usable passages.
func IsEmpty(context string) bool {
	return context == "" || context == EmptySentinel
}
