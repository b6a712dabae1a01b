package reviewer

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Roster is the reviewer list the ranking call chooses from: category name
// -> category description and reviewer handles. The canonical source is a
// YAML file maintained outside the bot.
type Roster struct {
	Categories map[string]Category `yaml:"categories"`
}

// Category groups reviewers by topic.
type Category struct {
	Description string   `yaml:"description"`
	Reviewers   []string `yaml:"reviewers"`
}

// LoadRoster reads and parses the roster file. Reloaded on every
// assignment; the file is small.
func LoadRoster(path string) (*Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster file: %w", err)
	}
	var r Roster
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parsing roster file: %w", err)
	}
	if len(r.Categories) == 0 {
		return nil, fmt.Errorf("roster file %s defines no categories", path)
	}
	return &r, nil
}

// Handles returns a sorted, deduplicated list of every reviewer handle.
func (r *Roster) Handles() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, cat := range r.Categories {
		for _, h := range cat.Reviewers {
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	sort.Strings(out)
	return out
}

// Contains reports whether the handle appears anywhere in the roster.
func (r *Roster) Contains(handle string) bool {
	for _, cat := range r.Categories {
		for _, h := range cat.Reviewers {
			if h == handle {
				return true
			}
		}
	}
	return false
}
