package render

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
)

type resource struct {
	name  string
	close func() error
}

// Resources releases what was acquired in the reverse order of acquisition.
type Resources struct {
	stack []resource
}

// Push registers close to run on Release.
func (r *Resources) Push(name string, close func() error) {
	r.stack = append(r.stack, resource{name: name, close: close})
}

// Len returns the number of resources not yet released.
func (r *Resources) Len() int {
	return len(r.stack)
}

// Release closes every registered resource, last pushed first. All of them are
// closed even if some fail; the failures are joined into the returned error.
// Calling Release again is a no-op.
func (r *Resources) Release() error {
	var errs []error
	for len(r.stack) > 0 {
		res := r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
		glog.V(1).Infof("release %s", res.name)
		if err := res.close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.name, err))
		}
	}
	return errors.Join(errs...)
}
