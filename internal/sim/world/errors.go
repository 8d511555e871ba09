package world

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingState matches every *MissingStateError via errors.Is.
var ErrMissingState = errors.New("missing required state")

// MissingStateError reports that a system could not run because the world
// lacks something it needs, e.g. an observer to chase. The tick continues
// without that system.
type MissingStateError struct {
	System string
	Need   []string
}

func (e *MissingStateError) Error() string {
	var need string
	switch len(e.Need) {
	case 0:
		need = "required state"
	case 1:
		need = e.Need[0]
	default:
		need = strings.Join(e.Need[:len(e.Need)-1], ", ") + " and " + e.Need[len(e.Need)-1]
	}
	return fmt.Sprintf("can't run %s without %s", e.System, need)
}

func (e *MissingStateError) Is(target error) bool { return target == ErrMissingState }

func missing(system string, need ...string) error {
	return &MissingStateError{System: system, Need: need}
}
