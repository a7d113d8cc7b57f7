// Package resource lays out and accesses the archive's on-disk resource
// tree: the top page, webfinger documents, static mirrored resources and
// the redirect map.
package resource

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/mizunashi-mana/archivedon/internal/pathenc"
	"github.com/mizunashi-mana/archivedon/webfinger"
)

// Paths resolves the fixed layout under one root directory.
type Paths struct {
	root string
}

func NewPaths(root string) Paths {
	return Paths{root: root}
}

func (p Paths) IndexHTML() string {
	return filepath.Join(p.root, "index.html")
}

func (p Paths) Webfinger(subject string) string {
	return filepath.Join(p.root, "webfinger", pathenc.ComponentWithExt(subject, "json"))
}

func (p Paths) StaticRoot() string {
	return filepath.Join(p.root, "static")
}

func (p Paths) StaticResource(path string) string {
	return filepath.Join(p.StaticRoot(), filepath.FromSlash(path))
}

func (p Paths) RedirectMap(domain, urlPath string) string {
	return pathenc.SafeJoin(filepath.Join(p.root, "map"), domain, urlPath, "json")
}

// RedirectMap records, per archived URL, the mirror location to redirect to
// for each requested media type.
type RedirectMap struct {
	TypeToURL map[string]string `json:"type_to_url"`
}

func NewRedirectMap() *RedirectMap {
	return &RedirectMap{TypeToURL: map[string]string{}}
}

func (m *RedirectMap) Insert(mediaType string, newURL *url.URL) {
	m.TypeToURL[mediaType] = newURL.String()
}

// Resolve returns the redirect target for a media type, or nil when the
// type is unknown or the stored value no longer parses as a URL.
func (m *RedirectMap) Resolve(mediaType string) *url.URL {
	raw, ok := m.TypeToURL[mediaType]
	if !ok {
		return nil
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return target
}

// NotFoundError reports a resource missing from the tree.
type NotFoundError struct {
	Path string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Path)
}

func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// Store reads and writes the resource tree.
type Store struct {
	paths Paths
}

// Open creates the root directory if needed and anchors the store at its
// absolute path.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create output root %s", root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve output root %s", root)
	}
	return &Store{paths: NewPaths(abs)}, nil
}

func (s *Store) Paths() Paths {
	return s.paths
}

func (s *Store) write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

func (s *Store) writeJSON(path string, content any) error {
	data, err := json.Marshal(content)
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	return s.write(path, data)
}

func (s *Store) SaveIndexHTML(content string) error {
	return s.write(s.paths.IndexHTML(), []byte(content))
}

func (s *Store) SaveWebfinger(content *webfinger.Resource) error {
	return s.writeJSON(s.paths.Webfinger(content.Subject), content)
}

func (s *Store) LoadWebfinger(subject string) (*webfinger.Resource, error) {
	path := s.paths.Webfinger(subject)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, NotFoundError{Path: path}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var content webfinger.Resource
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return &content, nil
}

func (s *Store) SaveStaticJSON(path string, content any) error {
	return s.writeJSON(s.paths.StaticResource(path), content)
}

func (s *Store) SaveStaticText(path string, content string) error {
	return s.write(s.paths.StaticResource(path), []byte(content))
}

// LoadRedirectMap returns nil when no map exists for the location or the
// stored document is corrupt; a corrupt map is rebuilt from scratch on the
// next save.
func (s *Store) LoadRedirectMap(domain, urlPath string) (*RedirectMap, error) {
	path := s.paths.RedirectMap(domain, urlPath)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var content RedirectMap
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, nil
	}
	return &content, nil
}

func (s *Store) SaveRedirectMap(domain, urlPath string, content *RedirectMap) error {
	return s.writeJSON(s.paths.RedirectMap(domain, urlPath), content)
}

// RegisterRedirects merges entries into the redirect map for one archived
// URL, preserving entries registered by earlier runs.
func (s *Store) RegisterRedirects(target *url.URL, newURL *url.URL, mediaTypes []string) error {
	domain := target.Hostname()
	urlPath := target.Path

	content, err := s.LoadRedirectMap(domain, urlPath)
	if err != nil {
		return err
	}
	if content == nil {
		content = NewRedirectMap()
	}
	for _, mediaType := range mediaTypes {
		content.Insert(mediaType, newURL)
	}
	return s.SaveRedirectMap(domain, urlPath, content)
}
