package navigation

import "fmt"

// MissingPageError reports a slug entry with no matching content document.
type MissingPageError struct {
	Slug string
	// Path is the configuration key of the offending entry.
	Path string
}

func (e *MissingPageError) Error() string {
	return fmt.Sprintf("%s: page %q not found in content", e.Path, e.Slug)
}

// MissingDirectoryError reports an autogenerate entry whose directory does not exist.
type MissingDirectoryError struct {
	Directory string
	Path      string
}

func (e *MissingDirectoryError) Error() string {
	return fmt.Sprintf("%s: directory %q not found in content", e.Path, e.Directory)
}

// DocumentError reports a content document that could not be read or parsed.
type DocumentError struct {
	Source string
	Path   string
	Err    error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: document %s: %v", e.Path, e.Source, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }
