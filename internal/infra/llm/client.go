// internal/infra/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"tem_review_bot/internal/domain/reviewer"

	"github.com/sirupsen/logrus"
)

const (
	requestTimeout = 60 * time.Second
	maxContentLen  = 3000
)

// Client calls an OpenAI-compatible chat completions endpoint to rank
// reviewers for a submission. It implements reviewer.Ranker.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *logrus.Entry
}

// New creates a Client targeting the given API base URL (e.g.
// "https://api.openai.com/v1").
func New(baseURL, apiKey, model string, logger *logrus.Entry) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// message is a chat message in the OpenAI API format.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the JSON body for POST /chat/completions.
type chatRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

// chatResponse is the JSON returned by POST /chat/completions.
type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// rankPayload is the structured answer the model is asked to produce.
type rankPayload struct {
	Reviewer1 string `json:"reviewer1"`
	Reviewer2 string `json:"reviewer2"`
	Category  string `json:"category"`
	Reason    string `json:"reason"`
}

// Rank asks the model for 1-2 reviewer handles. The answer is advisory;
// callers validate it against the roster.
func (c *Client) Rank(ctx context.Context, req reviewer.RankRequest) (*reviewer.RankResult, error) {
	raw, err := c.chat(ctx, systemPrompt(req), userPrompt(req))
	if err != nil {
		return nil, err
	}

	var payload rankPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		c.logger.WithField("raw", raw).Warn("Ranker returned invalid JSON")
		return nil, fmt.Errorf("parsing ranker response: %w", err)
	}

	result := &reviewer.RankResult{
		Category: payload.Category,
		Reason:   payload.Reason,
	}
	for _, h := range []string{payload.Reviewer1, payload.Reviewer2} {
		if h = strings.TrimSpace(h); h != "" {
			result.Reviewers = append(result.Reviewers, h)
		}
	}
	return result, nil
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: 0.3,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat: unexpected status %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat: empty choices array")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func systemPrompt(req reviewer.RankRequest) string {
	var b strings.Builder
	b.WriteString(`You assign reviewers for an editorial column.

Your task:
1. Analyze the topic of the submitted article.
2. Pick the most suitable reviewers from the reviewer list below.
3. Use the recent workload statistics to avoid piling work on the same person; when several reviewers fit, prefer the one with fewer recent assignments.
4. If only one reviewer fits the category, return just that one and leave reviewer2 as an empty string "".
5. Briefly explain your choice.

## Reviewer list
`)
	b.WriteString(renderRoster(req.Roster))
	b.WriteString(`
## Answer format (mandatory)

Reply with this JSON object and nothing else, no surrounding text or markdown:
{"reviewer1": "handle", "reviewer2": "handle_or_empty", "category": "main category", "reason": "2-3 sentences on why, including workload balance"}`)
	if req.Strict {
		b.WriteString("\n\nYour previous answer was not valid. Reply with ONLY the JSON object, using handles exactly as they appear in the reviewer list.")
	}
	return b.String()
}

func userPrompt(req reviewer.RankRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Submission title: %s\n", req.Title)
	if req.Content != "" {
		fmt.Fprintf(&b, "\nArticle content:\n%s\n", truncate(req.Content, maxContentLen))
	}
	b.WriteString("\n## Recent reviewer workload\n")
	b.WriteString(renderWorkload(req.Workload))
	if len(req.Excluded) > 0 {
		b.WriteString("\n## Constraints\n")
		fmt.Fprintf(&b, "Do NOT pick any of these handles (already assigned or declined): %s\n", mentionHandles(req.Excluded))
	}
	if req.WantReplacement {
		b.WriteString("\nPick exactly ONE replacement reviewer. Put it in reviewer1 and leave reviewer2 as an empty string.\n")
	} else {
		b.WriteString("\nPick the 1-2 most suitable reviewers with the lowest recent workload.\n")
	}
	return b.String()
}

func renderRoster(r *reviewer.Roster) string {
	if r == nil || len(r.Categories) == 0 {
		return "(no reviewer list found)\n"
	}
	names := make([]string, 0, len(r.Categories))
	for name := range r.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		cat := r.Categories[name]
		fmt.Fprintf(&b, "### %s\n", name)
		if cat.Description != "" {
			fmt.Fprintf(&b, "%s\n", cat.Description)
		}
		for _, h := range cat.Reviewers {
			fmt.Fprintf(&b, "- @%s\n", h)
		}
	}
	return b.String()
}

func renderWorkload(counts map[string]int) string {
	if len(counts) == 0 {
		return "(no workload data)\n"
	}
	handles := make([]string, 0, len(counts))
	for h := range counts {
		handles = append(handles, h)
	}
	sort.Strings(handles)

	var b strings.Builder
	for _, h := range handles {
		fmt.Fprintf(&b, "- @%s: %d assignments\n", h, counts[h])
	}
	return b.String()
}

func mentionHandles(handles []string) string {
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = "@" + h
	}
	return strings.Join(out, ", ")
}

// stripFences removes a surrounding markdown code fence, which some models
// add despite being told not to.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	parts := strings.Split(raw, "```")
	if len(parts) < 2 {
		return raw
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
