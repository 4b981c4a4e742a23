package navigation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"git.home.luguber.info/inful/sitekit/internal/config"
)

// contentTree writes files (slash-separated path -> content) under a temp root.
// A path ending in "/" creates an empty directory.
func contentTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
	return root
}

func auto(label, dir string) config.NavEntry {
	return config.NavEntry{Kind: config.NavAutogenerate, Label: label, Directory: dir}
}

func slugEntry(slug string) config.NavEntry {
	return config.NavEntry{Kind: config.NavSlug, Slug: slug}
}

func childLabels(t *testing.T, tree *Tree, id NodeID) []string {
	t.Helper()
	var labels []string
	for _, c := range tree.Node(id).Children {
		labels = append(labels, tree.Node(c).Label)
	}
	return labels
}

func TestBuild_LexicographicFallbackIsDeterministic(t *testing.T) {
	root := contentTree(t, map[string]string{
		"features/b.md": "# b\n",
		"features/a.md": "# a\n",
		"features/c.md": "# c\n",
	})
	entries := []config.NavEntry{auto("Features", "features")}

	first, err := Build(context.Background(), entries, root)
	require.NoError(t, err)
	require.Len(t, first.Roots(), 1)
	assert.Equal(t, []string{"A", "B", "C"}, childLabels(t, first, first.Roots()[0]))
	assert.Equal(t, []string{"features/a", "features/b", "features/c"}, first.Pages())

	second, err := Build(context.Background(), entries, root)
	require.NoError(t, err)
	assert.Equal(t, first.Items(), second.Items())
}

func TestBuild_ExplicitOrderFrontmatter(t *testing.T) {
	root := contentTree(t, map[string]string{
		"guide/a.md": "---\ntitle: a\nsidebar:\n  order: 2\n---\n",
		"guide/b.md": "---\ntitle: b\nsidebar:\n  order: 1\n---\n",
	})

	tree, err := Build(context.Background(), []config.NavEntry{auto("Guide", "guide")}, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, childLabels(t, tree, tree.Roots()[0]))
}

func TestBuild_EqualOrderKeepsEnumerationOrder(t *testing.T) {
	root := contentTree(t, map[string]string{
		"guide/c.md":     "---\ntitle: c\norder: 1\n---\n",
		"guide/a.md":     "---\ntitle: a\norder: 1\n---\n",
		"guide/z.md":     "---\ntitle: z\norder: 0\n---\n",
		"guide/plain.md": "---\ntitle: plain\n---\n",
		"guide/sub/x.md": "---\ntitle: x\n---\n",
	})

	tree, err := Build(context.Background(), []config.NavEntry{auto("Guide", "guide")}, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "c", "plain", "Sub"}, childLabels(t, tree, tree.Roots()[0]))
}

func TestBuild_NestedDirectoriesBecomeSections(t *testing.T) {
	root := contentTree(t, map[string]string{
		"swerve/intro.md":              "---\ntitle: Intro\n---\n",
		"swerve/swerve_dev/modules.md": "---\ntitle: Modules\n---\n",
		"swerve/swerve_dev/index.md":   "---\ntitle: Overview\n---\n",
	})

	tree, err := Build(context.Background(), []config.NavEntry{auto("Swerve", "swerve")}, root)
	require.NoError(t, err)

	items := tree.Items()
	require.Len(t, items, 1)
	require.Len(t, items[0].Items, 2)
	assert.Equal(t, "Intro", items[0].Items[0].Label)

	nested := items[0].Items[1]
	assert.Equal(t, KindSection, nested.Kind)
	assert.Equal(t, "Swerve Dev", nested.Label)
	require.Len(t, nested.Items, 2)
	assert.Equal(t, "swerve/swerve_dev", nested.Items[0].Slug, "index.md maps to its directory slug")
	assert.Equal(t, "swerve/swerve_dev/modules", nested.Items[1].Slug)
}

func TestBuild_LabelPrecedence(t *testing.T) {
	root := contentTree(t, map[string]string{
		"docs/with-sidebar-label.md": "---\ntitle: Long Title\nsidebar:\n  label: Short\n---\n",
		"docs/with-title.md":         "---\ntitle: Titled\n---\n",
		"docs/drive_train-basics.md": "no frontmatter\n",
		"docs/secret.md":             "---\ntitle: Secret\nsidebar:\n  hidden: true\n---\n",
		"docs/notes.txt":             "ignored",
		"docs/_partial.md":           "ignored",
	})

	tree, err := Build(context.Background(), []config.NavEntry{auto("Docs", "docs")}, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Drive Train Basics", "Short", "Titled"}, childLabels(t, tree, tree.Roots()[0]))
}

func TestBuild_MissingReferencesAreCollected(t *testing.T) {
	root := contentTree(t, map[string]string{
		"features/a.md": "# a\n",
	})
	entries := []config.NavEntry{
		slugEntry("other/aboutus"),
		auto("Features", "features"),
		auto("Swerve", "swerve_dev"),
		{Kind: config.NavGroup, Label: "More", Items: []config.NavEntry{slugEntry("more/missing")}},
	}

	tree, err := Build(context.Background(), entries, root)
	require.Error(t, err)
	assert.Nil(t, tree)

	errs := multierr.Errors(err)
	require.Len(t, errs, 3)

	var page *MissingPageError
	require.True(t, errors.As(errs[0], &page))
	assert.Equal(t, "other/aboutus", page.Slug)
	assert.Equal(t, "sidebar[0]", page.Path)
	assert.Contains(t, err.Error(), "other/aboutus")

	var dir *MissingDirectoryError
	require.True(t, errors.As(errs[1], &dir))
	assert.Equal(t, "swerve_dev", dir.Directory)
	assert.Equal(t, "sidebar[2]", dir.Path)

	require.True(t, errors.As(errs[2], &page))
	assert.Equal(t, "sidebar[3].items[0]", page.Path)
}

func TestBuild_EmptyDirectory(t *testing.T) {
	root := contentTree(t, map[string]string{
		"empty/":        "",
		"full/a.md":     "# a\n",
		"full/nothing/": "",
	})

	t.Run("emitted with zero children", func(t *testing.T) {
		tree, err := Build(context.Background(), []config.NavEntry{auto("Empty", "empty")}, root)
		require.NoError(t, err)
		require.Len(t, tree.Roots(), 1)
		node := tree.Node(tree.Roots()[0])
		assert.Equal(t, "Empty", node.Label)
		assert.Empty(t, node.Children)
	})

	t.Run("hideEmpty on entry omits section", func(t *testing.T) {
		e := auto("Empty", "empty")
		e.HideEmpty = true
		tree, err := Build(context.Background(), []config.NavEntry{e, auto("Full", "full")}, root)
		require.NoError(t, err)
		require.Len(t, tree.Roots(), 1)
		assert.Equal(t, "Full", tree.Node(tree.Roots()[0]).Label)
	})

	t.Run("builder option hides nested empty sections", func(t *testing.T) {
		tree, err := Build(context.Background(), []config.NavEntry{auto("Empty", "empty"), auto("Full", "full")}, root, WithHideEmpty())
		require.NoError(t, err)
		require.Len(t, tree.Roots(), 1)
		assert.Equal(t, []string{"A"}, childLabels(t, tree, tree.Roots()[0]))
	})

	t.Run("nested empty sections kept by default", func(t *testing.T) {
		tree, err := Build(context.Background(), []config.NavEntry{auto("Full", "full")}, root)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "Nothing"}, childLabels(t, tree, tree.Roots()[0]))
	})
}

func TestBuild_SlugAndLinkEntries(t *testing.T) {
	root := contentTree(t, map[string]string{
		"index.mdx":          "---\ntitle: Home\n---\n",
		"other/aboutus.md":   "---\ntitle: About Us\n---\n",
		"reference/index.md": "---\ntitle: Reference\n---\n",
	})
	entries := []config.NavEntry{
		slugEntry("index"),
		{Kind: config.NavSlug, Slug: "other/aboutus", Label: "About"},
		slugEntry("reference"),
		{Kind: config.NavGroup, Label: "External", Items: []config.NavEntry{
			{Kind: config.NavLink, Label: "GitHub", Link: "https://github.com/example"},
		}},
	}

	tree, err := Build(context.Background(), entries, root)
	require.NoError(t, err)

	items := tree.Items()
	require.Len(t, items, 4)
	assert.Equal(t, Item{Label: "Home", Kind: KindPage, Slug: "index", Source: "index.mdx"}, items[0])
	assert.Equal(t, Item{Label: "About", Kind: KindPage, Slug: "other/aboutus", Source: "other/aboutus.md"}, items[1])
	assert.Equal(t, "reference", items[2].Slug)
	assert.Equal(t, "reference/index.md", items[2].Source)
	assert.Equal(t, []Item{{Label: "GitHub", Kind: KindLink, Href: "https://github.com/example"}}, items[3].Items)
}

func TestBuild_ParallelScanPreservesDeclaredOrder(t *testing.T) {
	files := map[string]string{}
	var entries []config.NavEntry
	for i := 0; i < 12; i++ {
		dir := fmt.Sprintf("section%02d", i)
		for j := 0; j < 5; j++ {
			files[fmt.Sprintf("%s/page%d.md", dir, j)] = fmt.Sprintf("---\ntitle: %s-%d\n---\n", dir, j)
		}
		entries = append(entries, auto(dir, dir))
	}
	// Declare sections in reverse so declared order differs from filesystem order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	root := contentTree(t, files)

	serial, err := Build(context.Background(), entries, root, WithConcurrency(1))
	require.NoError(t, err)
	parallel, err := Build(context.Background(), entries, root, WithConcurrency(8))
	require.NoError(t, err)

	assert.Equal(t, serial.Items(), parallel.Items())
	assert.Equal(t, "section11", parallel.Node(parallel.Roots()[0]).Label)
}

func TestBuild_FingerprintTracksContent(t *testing.T) {
	root := contentTree(t, map[string]string{"docs/a.md": "---\ntitle: A\n---\nfirst\n"})
	entries := []config.NavEntry{auto("Docs", "docs")}

	before, err := Build(context.Background(), entries, root)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.md"), []byte("---\ntitle: A\n---\nsecond\n"), 0o600))
	after, err := Build(context.Background(), entries, root)
	require.NoError(t, err)

	fpBefore := before.Node(before.Node(before.Roots()[0]).Children[0]).Fingerprint
	fpAfter := after.Node(after.Node(after.Roots()[0]).Children[0]).Fingerprint
	assert.NotEmpty(t, fpBefore)
	assert.NotEqual(t, fpBefore, fpAfter)
}

func TestBuild_EntryPathsOption(t *testing.T) {
	root := contentTree(t, map[string]string{})
	_, err := Build(context.Background(), []config.NavEntry{slugEntry("nope")}, root,
		WithEntryPaths([]string{"plugins[1].entries[0]"}))

	var page *MissingPageError
	require.True(t, errors.As(err, &page))
	assert.Equal(t, "plugins[1].entries[0]", page.Path)
}

func TestBuild_InvalidFrontmatterReported(t *testing.T) {
	root := contentTree(t, map[string]string{"docs/bad.md": "---\ntitle: x\n"})
	_, err := Build(context.Background(), []config.NavEntry{auto("Docs", "docs")}, root)

	var docErr *DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.Equal(t, "docs/bad.md", docErr.Source)
}

func TestBuild_CanceledContext(t *testing.T) {
	root := contentTree(t, map[string]string{"docs/a.md": "# a\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, []config.NavEntry{auto("Docs", "docs")}, root)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTree_ChildrenAlwaysFollowParents(t *testing.T) {
	root := contentTree(t, map[string]string{
		"a/x.md":     "# x\n",
		"a/b/y.md":   "# y\n",
		"a/b/c/z.md": "# z\n",
	})
	tree, err := Build(context.Background(), []config.NavEntry{auto("A", "a"), auto("B", "a/b")}, root)
	require.NoError(t, err)

	seen := map[NodeID]bool{}
	tree.Walk(func(id NodeID, _ int) {
		require.False(t, seen[id], "node visited twice")
		seen[id] = true
		for _, c := range tree.Node(id).Children {
			require.Greater(t, c, id)
		}
	})
	assert.Len(t, seen, tree.Len())
}
