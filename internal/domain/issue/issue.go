// Package issue carries per-entry failures found while restoring saved
// state, so one corrupt record does not abort loading the rest.
package issue

import (
	"errors"
	"fmt"
)

var ErrUnknownName = errors.New("unknown name")

// UnknownName reports an enum or id that is not part of the closed set it
// was parsed against. Kind names the set ("resource type", "season").
type UnknownName struct {
	Kind string
	Name string
	Err  error
}

func (e *UnknownName) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

func (e *UnknownName) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnknownName}
	}
	return []error{e.Err, ErrUnknownName}
}

// Entry is one record that failed to restore.
type Entry struct {
	Section string `json:"section"`
	Key     string `json:"key"`
	Err     error  `json:"-"`
}

func (e Entry) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %v", e.Section, e.Key, e.Err)
}

func (e Entry) Unwrap() error { return e.Err }

type List []Entry

func (l *List) Add(section, key string, err error) {
	if err == nil {
		return
	}
	*l = append(*l, Entry{Section: section, Key: key, Err: err})
}

func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	errs := make([]error, 0, len(l))
	for _, e := range l {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}
