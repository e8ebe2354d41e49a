package provider

import (
	"encoding/json"
	"strings"
)

// stripFences removes a markdown code fence wrapping the payload, with or
// without a language tag. The provider occasionally wraps plain answers this
// way despite being told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop the language tag line (```json etc).
		if !strings.ContainsAny(s[:idx], ",[{") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseTopics decodes a topic list from raw model output. It accepts a JSON
// string array or a comma-separated list, in both cases cleaning entries the
// way the enrichment pipeline expects: trimmed, longer than two characters,
// capped at max. ok is false only when the payload looks like JSON but does
// not decode; an empty payload parses to an empty list.
func ParseTopics(raw string, max int) (topics []string, ok bool) {
	s := stripFences(raw)
	if s == "" {
		return nil, true
	}

	var parts []string
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &parts); err != nil {
			return nil, false
		}
	} else {
		parts = strings.Split(s, ",")
	}

	for _, part := range parts {
		t := strings.TrimSpace(part)
		if len(t) <= 2 {
			continue
		}
		topics = append(topics, t)
		if max > 0 && len(topics) == max {
			break
		}
	}
	return topics, true
}
