package prompts

import "fmt"

// TopicSystemPrompt defines the role for topic extraction requests.
const TopicSystemPrompt = "You are an AI research topic classifier. " +
	"Extract key technical topics and concepts from research papers."

// TopicUserPrompt builds the per-article user prompt for topic extraction.
// The model is asked for a bare comma-separated list; the response parser
// also tolerates JSON arrays and markdown code fences.
func TopicUserPrompt(title, abstract string, maxTopics int) string {
	return fmt.Sprintf(`Extract up to %d key technical topics from this research paper.
Return only the topics as a comma-separated list, nothing else.

Title: %s

Abstract: %s

Topics:`, maxTopics, title, abstract)
}
