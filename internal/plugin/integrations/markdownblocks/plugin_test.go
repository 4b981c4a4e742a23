package markdownblocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekit/internal/blocks"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
)

func TestBlocks(t *testing.T) {
	p := New().(*Plugin)
	require.NoError(t, p.Validate(map[string]any{
		"blocks": map[string]any{
			"opcblock":  map[string]any{"label": "Op Control Functions", "color": "orange"},
			"codeblock": map[string]any{"label": "Example", "color": "purple", "icon": "code"},
		},
	}))

	assert.Equal(t, []blocks.Definition{
		{Key: "codeblock", Label: "Example", Color: blocks.Purple, Icon: "code"},
		{Key: "opcblock", Label: "Op Control Functions", Color: blocks.Orange},
	}, p.Blocks())
	assert.Equal(t, []plugin.PluginCapability{plugin.CapabilityBlocks}, plugin.Capabilities(p))
}

func TestValidate_NoOptions(t *testing.T) {
	p := New().(*Plugin)
	require.NoError(t, p.Validate(nil))
	assert.Empty(t, p.Blocks())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]any
		key     string
	}{
		{
			name:    "missing label",
			options: map[string]any{"blocks": map[string]any{"note": map[string]any{"color": "blue"}}},
			key:     "blocks.note.label",
		},
		{
			name:    "missing color",
			options: map[string]any{"blocks": map[string]any{"note": map[string]any{"label": "Note"}}},
			key:     "blocks.note.color",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var oe *plugin.OptionError
			require.ErrorAs(t, New().Validate(tt.options), &oe)
			assert.Equal(t, tt.key, oe.Key)
		})
	}

	t.Run("unknown field", func(t *testing.T) {
		err := New().Validate(map[string]any{
			"blocks": map[string]any{"note": map[string]any{"label": "Note", "color": "blue", "size": 3}},
		})
		require.Error(t, err)
	})
}
