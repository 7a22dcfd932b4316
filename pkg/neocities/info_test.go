package neocities

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const roundTripBody = `{"result":"success","info":{"hits":42,"views":100,"tags":["blog","test"],"created_at":"2020-01-15"}}`

func TestAccessorsDecodeInfoPayload(t *testing.T) {
	c, _ := newStubClient(t, http.StatusOK, roundTripBody)
	ctx := context.Background()

	if got := c.GetHits(ctx, "mysite"); got != 42 {
		t.Fatalf("GetHits = %d, want 42", got)
	}
	if got := c.GetViews(ctx, "mysite"); got != 100 {
		t.Fatalf("GetViews = %d, want 100", got)
	}
	tags := c.GetTags(ctx, "mysite")
	if tags.Len() != 2 || !tags.Has("blog") || !tags.Has("test") {
		t.Fatalf("GetTags = %v", tags.Sorted())
	}
	want := time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)
	if got := c.GetCreatedAt(ctx, "mysite"); !got.Equal(want) {
		t.Fatalf("GetCreatedAt = %v, want %v", got, want)
	}
}

func TestAccessorsReturnSentinelsWhenResultNotSuccess(t *testing.T) {
	for _, body := range []string{
		`{"result":"error","error_type":"site_not_found","message":"could not find site"}`,
		`{"result":"pending","info":{"hits":42,"views":100,"tags":["a"],"created_at":"2020-01-15"}}`,
	} {
		c, _ := newStubClient(t, http.StatusOK, body)
		ctx := context.Background()

		if got := c.GetHits(ctx, "nope"); got != -1 {
			t.Fatalf("GetHits = %d, want -1", got)
		}
		if got := c.GetViews(ctx, "nope"); got != -1 {
			t.Fatalf("GetViews = %d, want -1", got)
		}
		if got := c.GetCreatedAt(ctx, "nope"); !got.Equal(EpochZero) {
			t.Fatalf("GetCreatedAt = %v, want epoch zero", got)
		}
		tags := c.GetTags(ctx, "nope")
		if tags == nil || tags.Len() != 0 {
			t.Fatalf("GetTags = %#v, want empty set", tags)
		}
	}
}

func TestGetInfoNotFound(t *testing.T) {
	c, _ := newStubClient(t, http.StatusBadRequest, `{"result":"error","error_type":"site_not_found","message":"could not find site"}`)
	info, err := c.GetInfo(context.Background(), "nope")
	if info != nil {
		t.Fatalf("expected nil info, got %#v", info)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetInfoMissingInfoObject(t *testing.T) {
	c, _ := newStubClient(t, http.StatusOK, `{"result":"success"}`)
	if _, err := c.GetInfo(context.Background(), "x"); !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestGetInfoAbsentFieldsUseSentinels(t *testing.T) {
	c, _ := newStubClient(t, http.StatusOK, `{"result":"success","info":{"sitename":"quiet"}}`)
	ctx := context.Background()

	info, err := c.GetInfo(ctx, "quiet")
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if info.Sitename != "quiet" || info.Hits != -1 || info.Views != -1 {
		t.Fatalf("unexpected info %#v", info)
	}
	if !info.CreatedAt.Equal(EpochZero) || info.Tags.Len() != 0 {
		t.Fatalf("unexpected defaults %#v", info)
	}
	if c.GetHits(ctx, "quiet") != -1 || c.GetViews(ctx, "quiet") != -1 {
		t.Fatalf("expected -1 counters for absent fields")
	}
}

func TestGetInfoIgnoresFieldsOutsideInfoObject(t *testing.T) {
	body := `{"result":"success","hits":999,"message":"\"views\": 7","info":{"hits":3,"views":4}}`
	c, _ := newStubClient(t, http.StatusOK, body)
	info, err := c.GetInfo(context.Background(), "x")
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if info.Hits != 3 || info.Views != 4 {
		t.Fatalf("counters read from wrong object: %#v", info)
	}
}

func TestGetInfoNumericCreatedAtKeepsOtherFields(t *testing.T) {
	body := `{"result":"success","info":{"hits":42,"views":100,"tags":["blog"],"created_at":1579046400}}`
	c, _ := newStubClient(t, http.StatusOK, body)
	ctx := context.Background()

	info, err := c.GetInfo(ctx, "mysite")
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if info.Hits != 42 || info.Views != 100 || !info.Tags.Has("blog") {
		t.Fatalf("well-formed fields lost: %#v", info)
	}
	if got := c.GetCreatedAt(ctx, "mysite"); !got.Equal(EpochZero) {
		t.Fatalf("GetCreatedAt = %v, want epoch zero", got)
	}
	if got := c.GetHits(ctx, "mysite"); got != 42 {
		t.Fatalf("GetHits = %d, want 42", got)
	}
}

func TestGetInfoStringHitsFallsBackPerField(t *testing.T) {
	body := `{"result":"success","info":{"hits":"42","views":7,"tags":["art",3,null],"created_at":"2020-01-15"}}`
	c, _ := newStubClient(t, http.StatusOK, body)
	ctx := context.Background()

	if got := c.GetHits(ctx, "mysite"); got != -1 {
		t.Fatalf("GetHits = %d, want -1", got)
	}
	if got := c.GetViews(ctx, "mysite"); got != 7 {
		t.Fatalf("GetViews = %d, want 7", got)
	}
	tags := c.GetTags(ctx, "mysite")
	if tags.Len() != 1 || !tags.Has("art") {
		t.Fatalf("GetTags = %v", tags.Sorted())
	}
	want := time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)
	if got := c.GetCreatedAt(ctx, "mysite"); !got.Equal(want) {
		t.Fatalf("GetCreatedAt = %v, want %v", got, want)
	}
}

func TestGetInfoNullCountersUseSentinels(t *testing.T) {
	c, _ := newStubClient(t, http.StatusOK, `{"result":"success","info":{"hits":null,"views":1.5,"tags":"art"}}`)
	info, err := c.GetInfo(context.Background(), "x")
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if info.Hits != -1 || info.Views != -1 || info.Tags == nil || info.Tags.Len() != 0 {
		t.Fatalf("unexpected info %#v", info)
	}
}

func TestGetInfoNonObjectInfoIsDecodeError(t *testing.T) {
	c, _ := newStubClient(t, http.StatusOK, `{"result":"success","info":[1,2]}`)
	if _, err := c.GetInfo(context.Background(), "x"); !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestGetInfoEncodesSitename(t *testing.T) {
	var rawQuery string
	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/info" {
			t.Errorf("path = %s", r.URL.Path)
		}
		rawQuery = r.URL.RawQuery
		w.Write([]byte(roundTripBody))
	})
	if _, err := c.GetInfo(context.Background(), "a&b=c"); err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if rawQuery != "sitename=a%26b%3Dc" {
		t.Fatalf("raw query = %s", rawQuery)
	}
}

func TestGetInfoNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c, err := New("alice", "s3cret", WithBaseURL(addr), WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := c.GetInfo(context.Background(), "mysite")
	if info != nil {
		t.Fatalf("expected no partial info, got %#v", info)
	}
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	if got := c.GetHits(context.Background(), "mysite"); got != -1 {
		t.Fatalf("GetHits on network failure = %d", got)
	}
}

func TestParseCreatedAt(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2020-01-15", time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2020-1-5", time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC)},
		{`"2021-12-31"`, time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"2019-07-04T10:11:12Z", time.Date(2019, 7, 4, 0, 0, 0, 0, time.UTC)},
		{"Sat, 29 Jun 2013 10:11:38 +0000", time.Date(2013, 6, 29, 0, 0, 0, 0, time.UTC)},
		{"", EpochZero},
		{"not-a-date", EpochZero},
		{"2020-13-45", EpochZero},
	}
	for _, tc := range cases {
		if got := ParseCreatedAt(tc.in); !got.Equal(tc.want) {
			t.Fatalf("ParseCreatedAt(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTagSetSorted(t *testing.T) {
	s := NewTagSet("zine", "art", "zine")
	got := s.Sorted()
	if len(got) != 2 || got[0] != "art" || got[1] != "zine" {
		t.Fatalf("Sorted = %v", got)
	}
}
