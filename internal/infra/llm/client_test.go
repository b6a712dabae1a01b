package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"tem_review_bot/internal/domain/reviewer"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// chatJSON wraps a model answer into a chat completions response body.
func chatJSON(content string) []byte {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return b
}

func testRoster() *reviewer.Roster {
	return &reviewer.Roster{Categories: map[string]reviewer.Category{
		"defi": {Description: "DeFi protocols", Reviewers: []string{"alice", "bob"}},
	}}
}

func TestRank(t *testing.T) {
	t.Run("parses a clean JSON answer", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "gpt-4o", req["model"])
			msgs := req["messages"].([]any)
			require.Len(t, msgs, 2)

			w.Write(chatJSON(`{"reviewer1": "alice", "reviewer2": "bob", "category": "defi", "reason": "both fit"}`))
		}))
		defer srv.Close()

		c := New(srv.URL, "test-key", "gpt-4o", testLogger())
		result, err := c.Rank(context.Background(), reviewer.RankRequest{
			Title:  "Rollup Economics",
			Roster: testRoster(),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob"}, result.Reviewers)
		assert.Equal(t, "defi", result.Category)
		assert.Equal(t, "both fit", result.Reason)
	})

	t.Run("strips markdown fences", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(chatJSON("```json\n{\"reviewer1\": \"alice\", \"reviewer2\": \"\", \"category\": \"defi\", \"reason\": \"solo\"}\n```"))
		}))
		defer srv.Close()

		c := New(srv.URL, "test-key", "gpt-4o", testLogger())
		result, err := c.Rank(context.Background(), reviewer.RankRequest{Title: "t", Roster: testRoster()})
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, result.Reviewers)
	})

	t.Run("empty reviewer2 is dropped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(chatJSON(`{"reviewer1": "bob", "reviewer2": " ", "category": "defi", "reason": "r"}`))
		}))
		defer srv.Close()

		c := New(srv.URL, "test-key", "gpt-4o", testLogger())
		result, err := c.Rank(context.Background(), reviewer.RankRequest{Title: "t", Roster: testRoster()})
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, result.Reviewers)
	})

	t.Run("invalid JSON is an explicit error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(chatJSON("I think alice would be great for this!"))
		}))
		defer srv.Close()

		c := New(srv.URL, "test-key", "gpt-4o", testLogger())
		_, err := c.Rank(context.Background(), reviewer.RankRequest{Title: "t", Roster: testRoster()})
		assert.Error(t, err)
	})

	t.Run("http error status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := New(srv.URL, "test-key", "gpt-4o", testLogger())
		_, err := c.Rank(context.Background(), reviewer.RankRequest{Title: "t", Roster: testRoster()})
		assert.Error(t, err)
	})

	t.Run("prompts carry exclusions and strict retry context", func(t *testing.T) {
		var system, user string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			system = req.Messages[0].Content
			user = req.Messages[1].Content
			w.Write(chatJSON(`{"reviewer1": "bob", "reviewer2": "", "category": "defi", "reason": "r"}`))
		}))
		defer srv.Close()

		c := New(srv.URL, "test-key", "gpt-4o", testLogger())
		_, err := c.Rank(context.Background(), reviewer.RankRequest{
			Title:           "Rollup Economics",
			Roster:          testRoster(),
			Workload:        map[string]int{"alice": 3},
			Excluded:        []string{"alice"},
			WantReplacement: true,
			Strict:          true,
		})
		require.NoError(t, err)

		assert.Contains(t, system, "@alice")
		assert.Contains(t, system, "ONLY the JSON object")
		assert.Contains(t, user, "Do NOT pick any of these handles")
		assert.Contains(t, user, "@alice: 3 assignments")
		assert.Contains(t, user, "exactly ONE replacement")
	})

	t.Run("long content is truncated", func(t *testing.T) {
		var user string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			user = req.Messages[1].Content
			w.Write(chatJSON(`{"reviewer1": "bob", "reviewer2": "", "category": "defi", "reason": "r"}`))
		}))
		defer srv.Close()

		long := make([]byte, 10000)
		for i := range long {
			long[i] = 'x'
		}
		c := New(srv.URL, "test-key", "gpt-4o", testLogger())
		_, err := c.Rank(context.Background(), reviewer.RankRequest{
			Title:   "t",
			Content: string(long),
			Roster:  testRoster(),
		})
		require.NoError(t, err)
		assert.Less(t, len(user), 5000, fmt.Sprintf("user prompt is %d bytes", len(user)))
	})
}
