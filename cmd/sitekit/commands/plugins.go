package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/sitekit/internal/plugin"
)

// PluginsCmd implements the 'plugins' command.
type PluginsCmd struct{}

func (p *PluginsCmd) Run(g *Global, _ *CLI) error {
	return listPlugins(g, plugin.DefaultCatalog())
}

func listPlugins(g *Global, catalog *plugin.Catalog) error {
	tw := tabwriter.NewWriter(g.stdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tVERSION\tTYPE\tCAPABILITIES\tDESCRIPTION")
	for _, m := range catalog.List() {
		p, err := catalog.New(m.Name)
		if err != nil {
			return err
		}
		caps := make([]string, 0, 4)
		for _, c := range plugin.Capabilities(p) {
			caps = append(caps, c.String())
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.Name, m.Version, m.Type, strings.Join(caps, ","), m.Description)
	}
	return tw.Flush()
}
