package loader

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTemplateNotFound signals a template reference absent from every
	// template directory.
	ErrTemplateNotFound = errors.New("loader: template not found")
	// ErrDataFileNotFound signals a data reference absent from every
	// configuration directory.
	ErrDataFileNotFound = errors.New("loader: data file not found")
	// ErrDirectoryNotFound signals a required search directory that does not
	// exist.
	ErrDirectoryNotFound = errors.New("loader: directory not found")
)

// NotFoundError carries the reference and the locations that were searched.
// It unwraps to one of the sentinel errors above.
type NotFoundError struct {
	Kind     error
	Ref      string
	Searched []string
}

func (e *NotFoundError) Error() string {
	noun := "file"
	switch e.Kind {
	case ErrTemplateNotFound:
		noun = "template"
	case ErrDataFileNotFound:
		noun = "data file"
	case ErrDirectoryNotFound:
		return fmt.Sprintf("loader: %s does not exist", e.Ref)
	}
	if len(e.Searched) == 0 {
		return fmt.Sprintf("loader: %s %q does not exist", noun, e.Ref)
	}
	return fmt.Sprintf("loader: %s %q not found in %s", noun, e.Ref, strings.Join(e.Searched, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return e.Kind
}
