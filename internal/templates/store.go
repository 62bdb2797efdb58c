package templates

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
)

// ErrTemplateNotFound indicates no document exists for a name/language pair.
var ErrTemplateNotFound = errors.New("template not found")

// templateExt is the file extension of a template document: <name>/<lang>.html
const templateExt = ".html"

var nameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Key identifies one template document.
type Key struct {
	Name     string
	Language string
}

func (k Key) String() string {
	return k.Name + "/" + k.Language
}

// Store is a read-only lookup table of template documents.
// It is filled once by a constructor and never modified afterwards, so it is
// safe for concurrent use without locking.
type Store struct {
	docs map[Key]string
}

// NewStore creates a store from an in-memory mapping. The mapping is copied.
func NewStore(docs map[Key]string) *Store {
	s := &Store{docs: make(map[Key]string, len(docs))}
	for k, v := range docs {
		s.docs[k] = v
	}
	return s
}

// LoadFS reads every <name>/<lang>.html document below root.
// Files that do not follow the layout are ignored.
func LoadFS(fsys fs.FS, root string) (*Store, error) {
	if root == "" {
		root = "."
	}

	docs := make(map[Key]string)
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := p
		if root != "." {
			rel = strings.TrimPrefix(p, root+"/")
		}

		key, ok := keyFromPath(rel)
		if !ok {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read template %s: %w", p, err)
		}
		docs[key] = string(content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load templates from %s: %w", root, err)
	}

	return &Store{docs: docs}, nil
}

// keyFromPath maps "greeting/en.html" to {greeting en}.
func keyFromPath(rel string) (Key, bool) {
	dir, file := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" || strings.Contains(dir, "/") || path.Ext(file) != templateExt {
		return Key{}, false
	}

	key := Key{Name: dir, Language: strings.TrimSuffix(file, templateExt)}
	if !nameRegex.MatchString(key.Name) || !nameRegex.MatchString(key.Language) {
		return Key{}, false
	}
	return key, true
}

// ResolveOption adjusts a single lookup.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	fallbackLanguage string
}

// WithFallbackLanguage makes Resolve try language code when the requested
// language has no document for the template. Without it there is no fallback.
func WithFallbackLanguage(code string) ResolveOption {
	return func(o *resolveOptions) {
		o.fallbackLanguage = code
	}
}

// Resolve returns the raw HTML for the template in the given language.
func (s *Store) Resolve(name, language string, opts ...ResolveOption) (string, error) {
	o := &resolveOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if !nameRegex.MatchString(name) {
		return "", fmt.Errorf("%w: invalid template name %q", ErrTemplateNotFound, name)
	}

	if doc, ok := s.docs[Key{Name: name, Language: language}]; ok {
		return doc, nil
	}

	if o.fallbackLanguage != "" && o.fallbackLanguage != language {
		if doc, ok := s.docs[Key{Name: name, Language: o.fallbackLanguage}]; ok {
			return doc, nil
		}
	}

	return "", fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, name, language)
}

// List returns template names mapped to their sorted language codes.
func (s *Store) List() map[string][]string {
	out := make(map[string][]string)
	for key := range s.docs {
		out[key.Name] = append(out[key.Name], key.Language)
	}
	for name := range out {
		sort.Strings(out[name])
	}
	return out
}

// Names returns the sorted template names.
func (s *Store) Names() []string {
	list := s.List()
	names := make([]string, 0, len(list))
	for name := range list {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of documents in the store.
func (s *Store) Len() int {
	return len(s.docs)
}
