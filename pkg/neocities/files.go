package neocities

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/neocities-go/pkg/httpclient"
)

const deleteField = "filenames[]"

// ListFiles lists the files under dir, or the whole site when dir is empty.
func (c *Client) ListFiles(ctx context.Context, dir string) (*FileListing, error) {
	req := httpclient.Request{Method: http.MethodGet, URL: "/api/list"}
	if dir != "" {
		req.Query = url.Values{"path": {dir}}
	}

	env, body, err := c.call(ctx, "list", req, ErrNotFound)
	if err != nil {
		return nil, err
	}

	listing := &FileListing{Path: dir, Raw: json.RawMessage(body)}
	if len(env.Files) > 0 {
		if err := json.Unmarshal(env.Files, &listing.Files); err != nil {
			return nil, fmt.Errorf("list: %w: %w", ErrDecode, err)
		}
	}
	return listing, nil
}

// Upload sends every file in one multipart request. All local paths are checked
// before any network I/O; a missing or unreadable file fails with ErrFileNotFound.
func (c *Client) Upload(ctx context.Context, files []UploadFile) error {
	if len(files) == 0 {
		return fmt.Errorf("upload: %w", ErrNoFiles)
	}
	if _, _, err := c.credentials(); err != nil {
		return err
	}
	for i, f := range files {
		if err := checkRemote(f.Remote); err != nil {
			return fmt.Errorf("upload: files[%d]: %w", i, err)
		}
		if err := checkReadable(f.Local); err != nil {
			return err
		}
	}

	parts := make([]httpclient.Part, 0, len(files))
	opened := make([]*os.File, 0, len(files))
	defer func() {
		for _, fh := range opened {
			fh.Close()
		}
	}()
	for _, f := range files {
		fh, err := os.Open(f.Local)
		if err != nil {
			return fmt.Errorf("upload: %w: %s: %w", ErrFileNotFound, f.Local, err)
		}
		opened = append(opened, fh)
		parts = append(parts, httpclient.Part{
			Name:        f.Remote,
			FileName:    path.Base(f.Remote),
			ContentType: contentTypeFor(f.Remote),
			Reader:      fh,
		})
	}

	_, _, err := c.call(ctx, "upload", httpclient.Request{
		Method: http.MethodPost,
		URL:    "/api/upload",
		Parts:  parts,
	}, ErrUpload)
	return err
}

// DeleteFiles removes the named remote files in one request.
func (c *Client) DeleteFiles(ctx context.Context, filenames []string) error {
	if len(filenames) == 0 {
		return fmt.Errorf("delete: %w", ErrNoFiles)
	}

	parts := make([]httpclient.Part, 0, len(filenames))
	for _, name := range filenames {
		parts = append(parts, httpclient.Part{Name: deleteField, Reader: strings.NewReader(name)})
	}

	_, _, err := c.call(ctx, "delete", httpclient.Request{
		Method: http.MethodPost,
		URL:    "/api/delete",
		Parts:  parts,
	}, ErrDelete)
	return err
}

// checkRemote rejects names that cannot travel as a multipart form name: the
// transport writes them into Content-Disposition unescaped.
func checkRemote(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidFilename)
	}
	if strings.ContainsAny(name, "\"\r\n") {
		return fmt.Errorf("%w: %q contains a quote or line break", ErrInvalidFilename, name)
	}
	return nil
}

func checkReadable(p string) error {
	fh, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("upload: %w: %s: %w", ErrFileNotFound, p, err)
	}
	defer fh.Close()

	st, err := fh.Stat()
	if err != nil {
		return fmt.Errorf("upload: %w: %s: %w", ErrFileNotFound, p, err)
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("upload: %w: %s is not a regular file", ErrFileNotFound, p)
	}
	return nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
