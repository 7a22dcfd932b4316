package neocities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/neocities-go/pkg/httpclient"
)

// GetInfo fetches the info payload for sitename.
func (c *Client) GetInfo(ctx context.Context, sitename string) (*SiteInfo, error) {
	env, _, err := c.call(ctx, "info", httpclient.Request{
		Method: http.MethodGet,
		URL:    "/api/info",
		Query:  url.Values{"sitename": {sitename}},
	}, ErrNotFound)
	if err != nil {
		return nil, err
	}
	if len(env.Info) == 0 || string(env.Info) == "null" {
		return nil, fmt.Errorf("info: %w: missing info object", ErrDecode)
	}

	var fields infoFields
	if err := json.Unmarshal(env.Info, &fields); err != nil {
		return nil, fmt.Errorf("info: %w: %w", ErrDecode, err)
	}
	return fields.siteInfo(env.Info), nil
}

// GetHits returns the hit counter for sitename, or -1 when it is unavailable.
func (c *Client) GetHits(ctx context.Context, sitename string) int {
	info, err := c.GetInfo(ctx, sitename)
	if err != nil {
		return -1
	}
	return info.Hits
}

// GetViews returns the view counter for sitename, or -1 when it is unavailable.
func (c *Client) GetViews(ctx context.Context, sitename string) int {
	info, err := c.GetInfo(ctx, sitename)
	if err != nil {
		return -1
	}
	return info.Views
}

// GetTags returns the tags of sitename; the set is empty when info is unavailable.
func (c *Client) GetTags(ctx context.Context, sitename string) TagSet {
	info, err := c.GetInfo(ctx, sitename)
	if err != nil || info.Tags == nil {
		return TagSet{}
	}
	return info.Tags
}

// GetCreatedAt returns the creation date of sitename, or EpochZero when it is
// unavailable or unparseable.
func (c *Client) GetCreatedAt(ctx context.Context, sitename string) time.Time {
	info, err := c.GetInfo(ctx, sitename)
	if err != nil {
		return EpochZero
	}
	return info.CreatedAt
}

func (f infoFields) siteInfo(raw json.RawMessage) *SiteInfo {
	return &SiteInfo{
		Sitename:    f.str("sitename"),
		Hits:        f.count("hits"),
		Views:       f.count("views"),
		Tags:        f.tags(),
		CreatedAt:   ParseCreatedAt(f.str("created_at")),
		LastUpdated: f.str("last_updated"),
		Domain:      f.str("domain"),
		Raw:         raw,
	}
}

// str returns the string value of key, or "" when absent or not a string.
func (f infoFields) str(key string) string {
	var s string
	if err := json.Unmarshal(f[key], &s); err != nil {
		return ""
	}
	return s
}

// count returns the integer value of key, or -1 when absent or not an integer.
func (f infoFields) count(key string) int {
	v := f[key]
	if len(v) == 0 || string(v) == "null" {
		return -1
	}
	var n int
	if err := json.Unmarshal(v, &n); err != nil {
		return -1
	}
	return n
}

// tags keeps every string element of the tags array; a non-array yields an empty set.
func (f infoFields) tags() TagSet {
	var items []json.RawMessage
	if err := json.Unmarshal(f["tags"], &items); err != nil {
		return TagSet{}
	}
	set := make(TagSet, len(items))
	for _, item := range items {
		var tag string
		if json.Unmarshal(item, &tag) == nil {
			set[tag] = struct{}{}
		}
	}
	return set
}

// ParseCreatedAt reads a leading YYYY-MM-DD date (UTC). RFC 1123 timestamps, as
// served by the live API, are accepted too. Anything else yields EpochZero.
func ParseCreatedAt(s string) time.Time {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return EpochZero
	}

	end := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '-'
	})
	datePart := s
	if end >= 0 {
		datePart = s[:end]
	}
	if t, err := time.Parse("2006-1-2", datePart); err == nil {
		return t.UTC()
	}

	for _, layout := range []string{time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
	return EpochZero
}
