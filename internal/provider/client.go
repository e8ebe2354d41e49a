package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/scouthq/paperscout/internal/logger"
	"github.com/scouthq/paperscout/internal/prompts"
)

// Client talks to the Anthropic Message Batches API. It is the only component
// that knows the provider wire format; callers see correlation keys, batch
// statuses, and per-item outcomes.
type Client struct {
	http      *resty.Client
	limiter   *rate.Limiter
	model     string
	maxTokens int
	maxTopics int
}

// ClientConfig holds configuration for the provider client.
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Version           string
	Model             string
	MaxTokens         int
	MaxTopics         int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NewClient creates a new provider client.
func NewClient(cfg *ClientConfig) *Client {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("x-api-key", cfg.APIKey)
	client.SetHeader("anthropic-version", cfg.Version)
	client.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &Client{
		http:      client,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		maxTopics: cfg.MaxTopics,
	}
}

// Message Batches API request/response structures
type batchCreateRequest struct {
	Requests []batchRequestEntry `json:"requests"`
}

type batchRequestEntry struct {
	CustomID string        `json:"custom_id"`
	Params   messageParams `json:"params"`
}

type messageParams struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type batchResponse struct {
	ID               string `json:"id"`
	ProcessingStatus string `json:"processing_status"`
	RequestCounts    struct {
		Processing int `json:"processing"`
		Succeeded  int `json:"succeeded"`
		Errored    int `json:"errored"`
		Canceled   int `json:"canceled"`
		Expired    int `json:"expired"`
	} `json:"request_counts"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type resultEntry struct {
	CustomID string `json:"custom_id"`
	Result   struct {
		Type    string `json:"type"`
		Message struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"message"`
	} `json:"result"`
}

// SubmitBatch submits one topic-extraction request per item and returns the
// provider-issued correlation key. The call is all-or-nothing: on any error
// no provider-side state needs tracking by the caller.
func (c *Client) SubmitBatch(ctx context.Context, requests []ItemRequest) (string, error) {
	if len(requests) == 0 {
		return "", fmt.Errorf("no items provided for batch submission")
	}

	body := batchCreateRequest{Requests: make([]batchRequestEntry, 0, len(requests))}
	for _, req := range requests {
		body.Requests = append(body.Requests, batchRequestEntry{
			CustomID: req.ItemID,
			Params: messageParams{
				Model:     c.model,
				MaxTokens: c.maxTokens,
				System:    prompts.TopicSystemPrompt,
				Messages: []chatMessage{
					{Role: "user", Content: prompts.TopicUserPrompt(req.Title, req.Abstract, c.maxTopics)},
				},
			},
		})
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var resp batchResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&resp).
		SetError(&resp).
		Post("/v1/messages/batches")
	if err != nil {
		return "", fmt.Errorf("failed to submit batch: %w", err)
	}
	if err := checkStatus(httpResp, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("provider returned no batch id")
	}
	return resp.ID, nil
}

// GetStatus retrieves the raw provider status for a batch.
func (c *Client) GetStatus(ctx context.Context, correlationKey string) (*BatchStatus, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp batchResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&resp).
		Get("/v1/messages/batches/" + correlationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch status: %w", err)
	}
	if err := checkStatus(httpResp, &resp); err != nil {
		return nil, err
	}

	return &BatchStatus{
		CorrelationKey: correlationKey,
		State:          resp.ProcessingStatus,
		Succeeded:      resp.RequestCounts.Succeeded,
		Processing:     resp.RequestCounts.Processing,
		Errored:        resp.RequestCounts.Errored,
	}, nil
}

// FetchResults streams the JSONL result set for an ended batch. A result line
// that fails to decode, or whose text payload cannot be parsed into topics,
// yields a failed outcome for that single item; it never aborts the rest of
// the fetch.
func (c *Client) FetchResults(ctx context.Context, correlationKey string) ([]ItemResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	httpResp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get("/v1/messages/batches/" + correlationKey + "/results")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batch results: %w", err)
	}
	body := httpResp.RawBody()
	defer body.Close()

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, fmt.Errorf("provider returned HTTP %d fetching results", httpResp.StatusCode())
	}

	var results []ItemResult
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		results = append(results, decodeResultLine(ctx, line, c.maxTopics)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch results: %w", err)
	}
	return results, nil
}

// decodeResultLine turns one JSONL entry into zero or one item results.
func decodeResultLine(ctx context.Context, line []byte, maxTopics int) []ItemResult {
	var entry resultEntry
	if err := json.Unmarshal(line, &entry); err != nil || entry.CustomID == "" {
		// Salvage the item id if possible so the failure is attributable.
		var partial struct {
			CustomID string `json:"custom_id"`
		}
		if json.Unmarshal(line, &partial) == nil && partial.CustomID != "" {
			return []ItemResult{{ItemID: partial.CustomID, Outcome: Outcome{Reason: ReasonMalformedResponse}}}
		}
		logger.CtxWarn(ctx, "Skipping undecodable batch result line")
		return nil
	}

	if entry.Result.Type != "succeeded" {
		return []ItemResult{{ItemID: entry.CustomID, Outcome: Outcome{Reason: "request_" + entry.Result.Type}}}
	}

	var text string
	for _, block := range entry.Result.Message.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	topics, ok := ParseTopics(text, maxTopics)
	if !ok {
		return []ItemResult{{ItemID: entry.CustomID, Outcome: Outcome{Reason: ReasonMalformedResponse}}}
	}
	if len(topics) == 0 {
		return []ItemResult{{ItemID: entry.CustomID, Outcome: Outcome{Reason: ReasonEmptyTopics}}}
	}
	return []ItemResult{{ItemID: entry.CustomID, Outcome: Outcome{Topics: topics}}}
}

// checkStatus converts a non-2xx provider response into an error.
func checkStatus(httpResp *resty.Response, resp *batchResponse) error {
	if httpResp.StatusCode() >= 200 && httpResp.StatusCode() < 300 {
		return nil
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return fmt.Errorf("provider returned HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
	}
	return fmt.Errorf("provider returned HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
}
