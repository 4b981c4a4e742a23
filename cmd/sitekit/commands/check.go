package commands

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"git.home.luguber.info/inful/sitekit/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/frontmatter"
	"git.home.luguber.info/inful/sitekit/internal/markdown"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct{}

// UnknownDirectiveError reports a `:::key` block whose key is not registered.
type UnknownDirectiveError struct {
	Source string
	Line   int
	Key    string
}

func (e *UnknownDirectiveError) Error() string {
	return fmt.Sprintf("%s:%d: unknown block directive %q", e.Source, e.Line, e.Key)
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	res, err := composeSite(context.Background(), root, cfg)
	if err != nil {
		return err
	}

	out := g.stdout()
	for _, o := range res.Registry().Overrides() {
		_, _ = fmt.Fprintf(out, "note: block %q from %s replaces the one from %s\n", o.Key, o.Kept, o.Dropped)
	}

	problems, err := checkDirectives(contentRoot(root, cfg), res.Registry())
	if err != nil {
		return foundationerrors.FileSystemError("content could not be read").WithCause(err).Build()
	}
	if len(problems) > 0 {
		return foundationerrors.DocsError("content uses unknown block directives").
			WithCause(multierr.Combine(problems...)).WithContext("count", len(problems)).Build()
	}

	_, _ = fmt.Fprintf(out, "OK: %d pages, %d blocks\n", len(res.Tree().Pages()), res.Registry().Len())
	return nil
}

func contentRoot(root *CLI, cfg *config.Config) string {
	if filepath.IsAbs(cfg.ContentDir) {
		return cfg.ContentDir
	}
	return filepath.Join(root.baseDir(), filepath.FromSlash(cfg.ContentDir))
}

// checkDirectives scans every content document under dir for directives that r does not
// resolve, in path order.
func checkDirectives(dir string, r markdown.Resolver) ([]error, error) {
	var problems []error
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if d.IsDir() || (ext != ".md" && ext != ".mdx") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc, err := frontmatter.Parse(content)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		offset := bytes.Count(content[:len(content)-len(doc.Body)], []byte("\n"))
		rel, _ := filepath.Rel(dir, path)
		for _, directive := range markdown.ScanDirectives(doc.Body) {
			if _, ok := r.Resolve(directive.Key); !ok {
				problems = append(problems, &UnknownDirectiveError{
					Source: filepath.ToSlash(rel),
					Line:   directive.Line + offset,
					Key:    directive.Key,
				})
			}
		}
		return nil
	})
	return problems, err
}
