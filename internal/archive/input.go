package archive

import (
	"os"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	defaultMaxPages      = 20
	defaultPageItemCount = 10
)

// Input is the fetch run description.
type Input struct {
	StaticBaseURL string   `json:"static_base_url"`
	Accounts      []string `json:"accounts"`

	Title       string `json:"title"`
	Description string `json:"description"`

	FetchOutbox      bool `json:"fetch_outbox"`
	IncludeAnnounces bool `json:"include_announces"`

	// DefaultMaxPages bounds outbox page fetches when the collection does
	// not declare totalItems. PageItemsCount is the rebuilt page size.
	DefaultMaxPages int `json:"default_max_pages"`
	PageItemsCount  int `json:"page_items_count"`
}

// LoadInput reads the input file and fills defaults for absent or
// non-positive bounds.
func LoadInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read input %s", path)
	}

	var input Input
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, errors.Wrapf(err, "decode input %s", path)
	}

	if input.StaticBaseURL == "" {
		return nil, errors.Errorf("input %s: static_base_url is required", path)
	}
	if input.DefaultMaxPages <= 0 {
		input.DefaultMaxPages = defaultMaxPages
	}
	if input.PageItemsCount <= 0 {
		input.PageItemsCount = defaultPageItemCount
	}
	if input.Title == "" {
		input.Title = "Archived accounts"
	}
	return &input, nil
}
