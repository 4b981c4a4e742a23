package navigation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inful/mdfp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/frontmatter"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
)

// Option configures Build.
type Option func(*builder)

// WithHideEmpty omits every autogenerated section that ends up with no children.
func WithHideEmpty() Option {
	return func(b *builder) { b.hideEmpty = true }
}

// WithConcurrency bounds how many top-level entries are scanned at once.
func WithConcurrency(n int) Option {
	return func(b *builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithEntryPaths names the configuration key of each entry for error reporting.
// Entries without a name fall back to "sidebar[i]".
func WithEntryPaths(paths []string) Option {
	return func(b *builder) { b.paths = paths }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *builder) {
		if l != nil {
			b.logger = l
		}
	}
}

var contentExtensions = []string{".md", ".mdx"}

type builder struct {
	root        string
	hideEmpty   bool
	concurrency int
	paths       []string
	logger      *slog.Logger
}

// Build resolves entries against the content tree rooted at contentRoot.
//
// Every missing page and missing directory is collected before Build returns; the
// returned error combines them in declared order. Top-level entries are scanned in
// parallel, but the resulting tree is always assembled in declared order.
func Build(ctx context.Context, entries []config.NavEntry, contentRoot string, opts ...Option) (*Tree, error) {
	b := &builder{
		root:        contentRoot,
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	subtrees := make([]*Tree, len(entries))
	errs := make([]error, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sub := &Tree{}
			errs[i] = b.resolve(sub, entries[i], b.entryPath(i), -1)
			subtrees[i] = sub
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}

	tree := &Tree{}
	for _, sub := range subtrees {
		tree.graft(sub, -1)
	}
	b.logger.Debug("Navigation tree built", slog.Int("entries", len(entries)), slog.Int("nodes", tree.Len()))
	return tree, nil
}

func (b *builder) entryPath(i int) string {
	if i < len(b.paths) && b.paths[i] != "" {
		return b.paths[i]
	}
	return fmt.Sprintf("sidebar[%d]", i)
}

// resolve adds the node(s) for e under parent and returns every problem found.
func (b *builder) resolve(t *Tree, e config.NavEntry, p string, parent NodeID) error {
	switch e.Kind {
	case config.NavSlug:
		node, err := b.page(e.Slug, p)
		if err != nil {
			return err
		}
		if e.Label != "" {
			node.Label = e.Label
		}
		t.add(node, parent)
		return nil

	case config.NavLink:
		t.add(Node{Label: e.Label, Kind: KindLink, Href: e.Link}, parent)
		return nil

	case config.NavGroup:
		id := t.add(Node{Label: e.Label, Kind: KindSection}, parent)
		var errs error
		for i, item := range e.Items {
			errs = multierr.Append(errs, b.resolve(t, item, fmt.Sprintf("%s.items[%d]", p, i), id))
		}
		return errs

	case config.NavAutogenerate:
		return b.autogenerate(t, e, p, parent)

	default:
		return fmt.Errorf("%s: unsupported entry kind %q", p, e.Kind)
	}
}

func (b *builder) page(slug, p string) (Node, error) {
	for _, rel := range candidates(slug) {
		full := filepath.Join(b.root, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}
		doc, err := b.readDocument(rel, p)
		if err != nil {
			return Node{}, err
		}
		return b.pageNode(doc, rel), nil
	}
	return Node{}, &MissingPageError{Slug: slug, Path: p}
}

func candidates(slug string) []string {
	var out []string
	if slug != "index" {
		for _, ext := range contentExtensions {
			out = append(out, slug+ext)
		}
	}
	base := slug
	if slug == "index" {
		base = ""
	}
	for _, ext := range contentExtensions {
		out = append(out, path.Join(base, "index"+ext))
	}
	return out
}

type document struct {
	rel         string
	meta        *frontmatter.Document
	fingerprint string
}

func (b *builder) readDocument(rel, p string) (*document, error) {
	data, err := os.ReadFile(filepath.Join(b.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, &DocumentError{Source: rel, Path: p, Err: err}
	}
	meta, err := frontmatter.Parse(data)
	if err != nil {
		return nil, &DocumentError{Source: rel, Path: p, Err: err}
	}
	return &document{
		rel:         rel,
		meta:        meta,
		fingerprint: mdfp.CalculateFingerprintFromParts(string(meta.Raw), string(meta.Body)),
	}, nil
}

func (b *builder) pageNode(doc *document, rel string) Node {
	label := doc.meta.Sidebar().Label
	if label == "" {
		label = doc.meta.Title()
	}
	if label == "" {
		label = b.humanize(strings.TrimSuffix(path.Base(rel), path.Ext(rel)))
	}
	return Node{
		Label:       label,
		Kind:        KindPage,
		Slug:        slugFor(rel),
		Source:      rel,
		Fingerprint: doc.fingerprint,
	}
}

// slugFor maps a content-relative file path to its page slug.
func slugFor(rel string) string {
	slug := strings.TrimSuffix(rel, path.Ext(rel))
	if path.Base(slug) == "index" {
		slug = path.Dir(slug)
		if slug == "." {
			return "index"
		}
	}
	return slug
}

// humanize derives a label from a file or directory name. A Caser is stateful, so each
// call builds its own.
func (b *builder) humanize(name string) string {
	return cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(name))
}

func (b *builder) autogenerate(t *Tree, e config.NavEntry, p string, parent NodeID) error {
	full := filepath.Join(b.root, filepath.FromSlash(e.Directory))
	info, err := os.Stat(full)
	if err != nil || !info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("Cannot stat content directory", logfields.Path(full), logfields.Error(err))
		}
		return &MissingDirectoryError{Directory: e.Directory, Path: p}
	}

	hide := b.hideEmpty || e.HideEmpty
	sub, errs := b.scan(e.Directory, p, hide)
	if errs != nil {
		return errs
	}
	if hide && len(sub.roots) == 0 {
		b.logger.Debug("Omitting empty section", logfields.Path(e.Directory))
		return nil
	}
	id := t.add(Node{Label: e.Label, Kind: KindSection}, parent)
	t.graft(sub, id)
	return nil
}

type sibling struct {
	order   int
	ordered bool
	tree    *Tree
}

// scan returns the ordered children of dir as the roots of a fresh tree.
func (b *builder) scan(dir, p string, hide bool) (*Tree, error) {
	entries, err := os.ReadDir(filepath.Join(b.root, filepath.FromSlash(dir)))
	if err != nil {
		return nil, &DocumentError{Source: dir, Path: p, Err: err}
	}
	// os.ReadDir sorts by filename; that is the enumeration order ties fall back to.
	var (
		siblings []sibling
		errs     error
	)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		rel := path.Join(dir, name)

		if entry.IsDir() {
			children, err := b.scan(rel, p, hide)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if hide && len(children.roots) == 0 {
				continue
			}
			section := &Tree{}
			id := section.add(Node{Label: b.humanize(name), Kind: KindSection}, -1)
			section.graft(children, id)
			siblings = append(siblings, sibling{tree: section})
			continue
		}

		if !isContent(name) {
			continue
		}
		doc, err := b.readDocument(rel, p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		sb := doc.meta.Sidebar()
		if sb.Hidden {
			continue
		}
		leaf := &Tree{}
		leaf.add(b.pageNode(doc, rel), -1)
		siblings = append(siblings, sibling{order: sb.Order, ordered: sb.Ordered, tree: leaf})
	}
	if errs != nil {
		return nil, errs
	}

	sort.SliceStable(siblings, func(i, j int) bool {
		a, c := siblings[i], siblings[j]
		if a.ordered != c.ordered {
			return a.ordered
		}
		return a.ordered && a.order < c.order
	})

	out := &Tree{}
	for _, s := range siblings {
		out.graft(s.tree, -1)
	}
	return out, nil
}

func isContent(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range contentExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
