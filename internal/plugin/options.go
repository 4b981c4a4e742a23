package plugin

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// OptionError reports an invalid plugin option.
type OptionError struct {
	// Key is the option path below "options", e.g. "blocks.codeblock.color".
	Key    string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("option %s: %s", e.Key, e.Reason)
}

// DecodeOptions decodes options into out, which should be a pointer to a struct with
// yaml tags. Keys that out does not declare are rejected. Fields absent from options
// keep their current values, so out may be pre-filled with defaults.
func DecodeOptions(options map[string]any, out any) error {
	if len(options) == 0 {
		return nil
	}
	data, err := yaml.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}
