// Package markdown exposes the block registry to the goldmark renderer.
//
// Content authors write custom blocks as container directives:
//
//	:::codeblock[Optional title]
//	Body **markdown**.
//	:::
//
// Outer blocks that contain other blocks use a longer fence (`::::`), and the closing
// fence must repeat the opening colon count. Directives whose key is not registered are
// left untouched and render as ordinary paragraphs.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/sitekit/internal/blocks"
)

// Resolver looks up block definitions by directive key. *blocks.Registry implements it.
type Resolver interface {
	Resolve(key string) (blocks.Definition, bool)
}

// KindAdmonition is the AST node kind of a resolved custom block.
var KindAdmonition = gast.NewNodeKind("Admonition")

// Admonition is a custom block whose children are ordinary Markdown blocks.
type Admonition struct {
	gast.BaseBlock
	Definition blocks.Definition
	// Title overrides the definition label when the directive carries one.
	Title string
	fence int
}

// Kind implements ast.Node.
func (n *Admonition) Kind() gast.NodeKind { return KindAdmonition }

// Dump implements ast.Node.
func (n *Admonition) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{
		"Key":   n.Definition.Key,
		"Title": n.Title,
	}, nil)
}

// Label returns the text shown in the block header.
func (n *Admonition) Label() string {
	if n.Title != "" {
		return n.Title
	}
	return n.Definition.Label
}

type blockParser struct {
	resolver Resolver
}

func (p *blockParser) Trigger() []byte { return []byte{':'} }

func (p *blockParser) Open(_ gast.Node, reader text.Reader, pc parser.Context) (gast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos >= len(line) {
		return nil, parser.NoChildren
	}
	d, ok := parseOpening(line[pos:])
	if !ok {
		return nil, parser.NoChildren
	}
	def, ok := p.resolver.Resolve(d.Key)
	if !ok {
		return nil, parser.NoChildren
	}
	reader.Advance(len(util.TrimRightSpace(line)))
	return &Admonition{Definition: def, Title: d.Title, fence: d.Fence}, parser.HasChildren
}

func (p *blockParser) Continue(node gast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*Admonition)
	line, _ := reader.PeekLine()
	if isClosingFence(line, n.fence) && !inCodeFence(node, pc) {
		reader.Advance(len(util.TrimRightSpace(line)))
		return parser.Close
	}
	return parser.Continue | parser.HasChildren
}

func (p *blockParser) Close(gast.Node, text.Reader, parser.Context) {}

func (p *blockParser) CanInterruptParagraph() bool { return true }

func (p *blockParser) CanAcceptIndentedLine() bool { return false }

// inCodeFence reports whether a fenced code block opened inside node is still open.
// Container parsers continue before their children, so a fence line in such a code
// block would otherwise close the admonition.
func inCodeFence(node gast.Node, pc parser.Context) bool {
	inside := false
	for _, b := range pc.OpenedBlocks() {
		if b.Node == node {
			inside = true
			continue
		}
		if inside && b.Node.Kind() == gast.KindFencedCodeBlock {
			return true
		}
	}
	return false
}

func isClosingFence(line []byte, fence int) bool {
	trimmed := util.TrimRightSpace(util.TrimLeftSpace(line))
	if len(trimmed) != fence {
		return false
	}
	return len(bytes.Trim(trimmed, ":")) == 0
}

type htmlRenderer struct{}

func (r *htmlRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindAdmonition, r.renderAdmonition)
}

func (r *htmlRenderer) renderAdmonition(w util.BufWriter, _ []byte, node gast.Node, entering bool) (gast.WalkStatus, error) {
	n := node.(*Admonition)
	if !entering {
		_, _ = w.WriteString("</aside>\n")
		return gast.WalkContinue, nil
	}
	key := util.EscapeHTML([]byte(n.Definition.Key))
	_, _ = w.WriteString(`<aside class="sitekit-block sitekit-block-`)
	_, _ = w.Write(key)
	_, _ = w.WriteString(`" data-block="`)
	_, _ = w.Write(key)
	_, _ = w.WriteString(`" data-color="`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Definition.Color)))
	if n.Definition.Icon != "" {
		_, _ = w.WriteString(`" data-icon="`)
		_, _ = w.Write(util.EscapeHTML([]byte(n.Definition.Icon)))
	}
	_, _ = w.WriteString(`">` + "\n" + `<p class="sitekit-block-title">`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Label())))
	_, _ = w.WriteString("</p>\n")
	return gast.WalkContinue, nil
}

// Extension registers the custom block parser and renderer with a goldmark instance.
type Extension struct {
	resolver Resolver
}

// NewExtension returns a goldmark extender backed by r.
func NewExtension(r Resolver) *Extension {
	return &Extension{resolver: r}
}

// Extend implements goldmark.Extender.
func (e *Extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&blockParser{resolver: e.resolver}, 750),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&htmlRenderer{}, 500),
	))
}

// New builds a goldmark instance with the block extension and any extra extenders.
func New(r Resolver, extra ...goldmark.Extender) goldmark.Markdown {
	exts := append([]goldmark.Extender{NewExtension(r)}, extra...)
	return goldmark.New(goldmark.WithExtensions(exts...))
}
