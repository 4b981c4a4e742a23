package compose

import "fmt"

// PluginCompositionError attributes a failure to the plugin at Position in the
// configured plugins list.
type PluginCompositionError struct {
	Name     string
	Position int
	Err      error
}

func (e *PluginCompositionError) Error() string {
	return fmt.Sprintf("plugins[%d] (%s): %v", e.Position, e.Name, e.Err)
}

func (e *PluginCompositionError) Unwrap() error { return e.Err }
