package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCyclicDependency = errors.New("cyclic dependency")
	ErrUnknownNode      = errors.New("unknown node")
)

// CycleError reports one dependency cycle found during sorting.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return ErrCyclicDependency.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCyclicDependency, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicDependency }

func unknownNode(id string) error {
	return fmt.Errorf("%w: %q", ErrUnknownNode, id)
}
