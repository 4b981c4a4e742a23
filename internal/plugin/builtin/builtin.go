// Package builtin links every bundled plugin into plugin.DefaultCatalog.
package builtin

import (
	_ "git.home.luguber.info/inful/sitekit/internal/plugin/integrations/gfm"
	_ "git.home.luguber.info/inful/sitekit/internal/plugin/integrations/markdownblocks"
	_ "git.home.luguber.info/inful/sitekit/internal/plugin/integrations/sidebarlinks"
	_ "git.home.luguber.info/inful/sitekit/internal/plugin/themes/catppuccin"
)
