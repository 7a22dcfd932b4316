package neocities

import (
	"encoding/json"
	"sort"
	"time"
)

// EpochZero is returned by GetCreatedAt when no creation date is available.
var EpochZero = time.Unix(0, 0).UTC()

// SiteInfo is the decoded info payload for one site.
// Hits and Views are -1 when the payload omits them.
type SiteInfo struct {
	Sitename    string
	Hits        int
	Views       int
	Tags        TagSet
	CreatedAt   time.Time
	LastUpdated string
	Domain      string
	Raw         json.RawMessage
}

// TagSet is an unordered set of site tags.
type TagSet map[string]struct{}

// NewTagSet builds a set from tags, dropping duplicates.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

func (s TagSet) Len() int { return len(s) }

// Sorted returns the tags in lexical order.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// UploadFile maps a remote filename to a local file path.
type UploadFile struct {
	Remote string `json:"remote" yaml:"remote"`
	Local  string `json:"local" yaml:"local"`
}

// FileListing is the list endpoint payload. Raw holds the body exactly as received.
type FileListing struct {
	Path  string
	Raw   json.RawMessage
	Files []FileEntry
}

// FileEntry is one file or directory in a listing.
type FileEntry struct {
	Path        string `json:"path"`
	IsDirectory bool   `json:"is_directory"`
	Size        int64  `json:"size"`
	UpdatedAt   string `json:"updated_at"`
	SHA1Hash    string `json:"sha1_hash"`
}

// apiEnvelope is the common response shape shared by every endpoint.
type apiEnvelope struct {
	Result    string          `json:"result"`
	ErrorType string          `json:"error_type"`
	Message   string          `json:"message"`
	Info      json.RawMessage `json:"info"`
	Files     json.RawMessage `json:"files"`
}

func (e apiEnvelope) succeeded() bool { return e.Result == resultSuccess }

// infoFields holds the info object one raw value per key, so a malformed field
// only costs that field its value.
type infoFields map[string]json.RawMessage

const resultSuccess = "success"
