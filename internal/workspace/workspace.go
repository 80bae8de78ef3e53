package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"birdtriage/internal/clip"
	"birdtriage/internal/config"
	"birdtriage/internal/faults"
	"birdtriage/internal/progress"
	"birdtriage/internal/router"
)

const component = "workspace"

// Workspace is an opened root folder.
type Workspace struct {
	cfg    *config.Config
	layout router.Layout
	record *progress.Record
	loader *clip.Loader
}

// Category summarizes one category directory.
type Category struct {
	Name      string
	Label     string
	Dir       string
	Pending   int
	Approved  int
	Completed bool
}

// Open validates the configured root folder and returns a workspace over it.
func Open(cfg *config.Config) (*Workspace, error) {
	if cfg == nil {
		return nil, errors.New("workspace: config is required")
	}
	root := strings.TrimSpace(cfg.Paths.RootDir)
	if root == "" {
		return nil, faults.Wrap(faults.ErrDirectoryUnavailable, component, "open", "paths.root_dir is not set", nil)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, faults.Wrap(faults.ErrDirectoryUnavailable, component, "open", root, err)
	}
	if !info.IsDir() {
		return nil, faults.Wrap(faults.ErrDirectoryUnavailable, component, "open", root+" is not a directory", nil)
	}
	layout := router.NewLayout(root, cfg.Layout)
	return &Workspace{
		cfg:    cfg,
		layout: layout,
		record: progress.NewRecord(filepath.Join(root, cfg.Layout.ProgressFile)),
		loader: clip.NewLoader(cfg.Review.ExpectedDurationSeconds),
	}, nil
}

// Root returns the root folder.
func (w *Workspace) Root() string {
	return w.layout.Root
}

// Layout returns the directory layout under the root folder.
func (w *Workspace) Layout() router.Layout {
	return w.layout
}

// Record returns the progress record of the root folder.
func (w *Workspace) Record() *progress.Record {
	return w.record
}

// Loader returns a clip loader using the configured expected duration.
func (w *Workspace) Loader() *clip.Loader {
	return w.loader
}

// Categories lists category directories sorted by name. Output directories,
// hidden entries, and plain files are not categories.
func (w *Workspace) Categories() ([]Category, error) {
	entries, err := os.ReadDir(w.layout.Root)
	if err != nil {
		return nil, faults.Wrap(faults.ErrDirectoryUnavailable, component, "list categories", w.layout.Root, err)
	}
	completed, err := w.record.CompletedSet()
	if err != nil {
		return nil, err
	}

	exts := extensionSet(w.cfg.Review.Extensions)
	var out []Category
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || w.layout.Reserved(name) {
			continue
		}
		dir := w.layout.CategoryDir(name)
		pending, err := countCandidates(dir, exts)
		if err != nil {
			return nil, err
		}
		approved, err := progress.CountApproved(w.layout.ApprovedCategoryDir(name))
		if err != nil {
			return nil, err
		}
		_, done := completed[name]
		out = append(out, Category{
			Name:      name,
			Label:     Label(name),
			Dir:       dir,
			Pending:   pending,
			Approved:  approved,
			Completed: done,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Category returns the summary for one category.
func (w *Workspace) Category(name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || w.layout.Reserved(name) {
		return Category{}, faults.Wrap(faults.ErrDirectoryUnavailable, component, "category", fmt.Sprintf("%q is not a category", name), nil)
	}
	all, err := w.Categories()
	if err != nil {
		return Category{}, err
	}
	for _, c := range all {
		if c.Name == name {
			return c, nil
		}
	}
	return Category{}, faults.Wrap(faults.ErrDirectoryUnavailable, component, "category", w.layout.CategoryDir(name), fs.ErrNotExist)
}

// NextPending returns the first category, by name, that is not yet in the
// progress record and still has candidate clips.
func (w *Workspace) NextPending() (Category, bool, error) {
	all, err := w.Categories()
	if err != nil {
		return Category{}, false, err
	}
	for _, c := range all {
		if !c.Completed && c.Pending > 0 {
			return c, true, nil
		}
	}
	return Category{}, false, nil
}

// Label converts a directory name into a display label such as "American Robin".
func Label(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return name
	}
	return cases.Title(language.Und).String(cleaned)
}

func countCandidates(dir string, exts map[string]struct{}) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, faults.Wrap(faults.ErrDirectoryUnavailable, component, "count clips", dir, err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := exts[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			count++
		}
	}
	return count, nil
}

func extensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		if ext = config.NormalizeExtension(ext); ext != "" {
			set[ext] = struct{}{}
		}
	}
	return set
}
