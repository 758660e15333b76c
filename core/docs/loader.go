package docs

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/pagerbot/core/paginator"
)

// fileDocument is the on-disk YAML shape of a document.
type fileDocument struct {
	Name  string     `yaml:"name"`
	Title string     `yaml:"title"`
	Pages []filePage `yaml:"pages"`
}

type filePage struct {
	paginator.Embed `yaml:",inline"`
	// Attachment is a path relative to the YAML file. Its base name picks the
	// embed slot, e.g. image.png or thumbnail-logo.jpg.
	Attachment string `yaml:"attachment"`
}

// LoadDir parses every *.yaml and *.yml document in dir, sorted by file name.
func LoadDir(dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("docs: read dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	out := make([]*Document, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		key := NormalizeName(doc.Name)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("docs: document %q defined in both %s and %s", doc.Name, prev, p)
		}
		seen[key] = p
		out = append(out, doc)
	}
	return out, nil
}

// LoadFile parses a single YAML document. The name defaults to the file name
// without extension.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("docs: read %s: %w", path, err)
	}
	var fd fileDocument
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("docs: parse %s: %w", path, err)
	}

	name := strings.TrimSpace(fd.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	doc := &Document{
		Name:  name,
		Title: strings.TrimSpace(fd.Title),
		Pages: make([]*paginator.Embed, len(fd.Pages)),
	}

	base := filepath.Dir(path)
	for i := range fd.Pages {
		page := fd.Pages[i].Embed
		doc.Pages[i] = &page
		ref := strings.TrimSpace(fd.Pages[i].Attachment)
		if ref == "" {
			continue
		}
		f, err := readAttachment(base, ref)
		if err != nil {
			return nil, fmt.Errorf("docs: %s page %d: %w", path, i+1, err)
		}
		if doc.Files == nil {
			doc.Files = make([]*paginator.File, len(fd.Pages))
		}
		doc.Files[i] = f
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return doc, nil
}

func readAttachment(base, ref string) (*paginator.File, error) {
	if filepath.IsAbs(ref) {
		return nil, fmt.Errorf("attachment %q must be relative", ref)
	}
	ref = filepath.Clean(ref)
	if !filepath.IsLocal(ref) {
		return nil, fmt.Errorf("attachment %q must stay inside the documents directory", ref)
	}
	path := filepath.Join(base, ref)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("attachment: %w", err)
	}
	ctype := mime.TypeByExtension(filepath.Ext(path))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	return &paginator.File{
		Name:        filepath.Base(path),
		ContentType: ctype,
		Data:        data,
	}, nil
}
