// Package manifest loads push manifests: which local files map to which remote paths.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samvad-hq/neocities-go/pkg/neocities"
	"gopkg.in/yaml.v3"
)

// Manifest is a decoded push manifest. Local paths in Files are resolved against Root,
// and Root against the manifest file's directory.
type Manifest struct {
	Sitename string  `json:"sitename" yaml:"sitename"`
	Root     string  `json:"root" yaml:"root"`
	Files    []Entry `json:"files" yaml:"files"`
}

// Entry maps one remote path to a local file.
type Entry struct {
	Remote string `json:"remote" yaml:"remote"`
	Local  string `json:"local" yaml:"local"`
}

// Load reads a YAML or JSON manifest. When it lists no files, every regular file
// under Root (dotfiles and the manifest itself excluded) is included with its
// slash-separated relative path as remote name.
func Load(p string) (*Manifest, error) {
	p = strings.TrimSpace(p)
	m, err := read(p)
	if err != nil {
		return nil, err
	}
	m.Root = resolveRoot(filepath.Dir(p), m.Root)

	if len(m.Files) == 0 {
		entries, err := walkRoot(m.Root, p)
		if err != nil {
			return nil, err
		}
		m.Files = entries
	}
	if len(m.Files) == 0 {
		return nil, errors.New("manifest contains no files")
	}

	seen := make(map[string]struct{}, len(m.Files))
	for i := range m.Files {
		e, err := sanitizeEntry(m.Files[i], m.Root)
		if err != nil {
			return nil, fmt.Errorf("files[%d]: %w", i, err)
		}
		if _, dup := seen[e.Remote]; dup {
			return nil, fmt.Errorf("duplicate remote path %q", e.Remote)
		}
		seen[e.Remote] = struct{}{}
		m.Files[i] = e
	}

	return &m, nil
}

// Sitename returns the sitename declared by the manifest at p, or "" when the
// file is unreadable or declares none. The file list is not resolved.
func Sitename(p string) string {
	m, err := read(strings.TrimSpace(p))
	if err != nil {
		return ""
	}
	return m.Sitename
}

func read(p string) (Manifest, error) {
	if p == "" {
		return Manifest{}, errors.New("manifest file path is empty")
	}

	file, err := os.Open(p)
	if err != nil {
		return Manifest{}, fmt.Errorf("open manifest file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest file: %w", err)
	}

	m, err := parse(raw, filepath.Ext(p))
	if err != nil {
		return Manifest{}, err
	}
	m.Sitename = strings.TrimSpace(m.Sitename)
	return m, nil
}

// UploadFiles returns the manifest as an upload request.
func (m *Manifest) UploadFiles() []neocities.UploadFile {
	if m == nil {
		return nil
	}
	out := make([]neocities.UploadFile, 0, len(m.Files))
	for _, e := range m.Files {
		out = append(out, neocities.UploadFile{Remote: e.Remote, Local: e.Local})
	}
	return out
}

type unmarshalFn func([]byte, any) error

func parse(data []byte, ext string) (Manifest, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var m Manifest
		if err := d.fn(data, &m); err == nil {
			return m, nil
		}
	}

	return Manifest{}, errors.New("manifest format not recognized (expected YAML or JSON)")
}

func resolveRoot(base, root string) string {
	root = strings.TrimSpace(root)
	if root == "" {
		return base
	}
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	return filepath.Join(base, root)
}

// CleanRemote normalises a remote path to slash-separated relative form.
func CleanRemote(remote string) (string, error) {
	remote = strings.TrimSpace(strings.ReplaceAll(remote, `\`, "/"))
	remote = strings.TrimLeft(path.Clean("/"+remote), "/")
	if remote == "" || remote == "." {
		return "", errors.New("remote path is empty")
	}
	return remote, nil
}

func sanitizeEntry(e Entry, root string) (Entry, error) {
	remote, err := CleanRemote(e.Remote)
	if err != nil {
		return Entry{}, err
	}
	local := strings.TrimSpace(e.Local)
	if local == "" {
		return Entry{}, fmt.Errorf("local path is required for %q", remote)
	}
	if !filepath.IsAbs(local) {
		local = filepath.Join(root, local)
	}
	return Entry{Remote: remote, Local: local}, nil
}

func walkRoot(root, exclude string) ([]Entry, error) {
	exclude, _ = filepath.Abs(exclude)
	var entries []Entry
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if abs, _ := filepath.Abs(p); abs == exclude {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Remote: filepath.ToSlash(rel), Local: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk manifest root: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Remote < entries[j].Remote })
	return entries, nil
}
