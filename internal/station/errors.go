package station

import "fmt"

// LoadError reports a missing or malformed summary resource.
// Index is the offending station, or -1 for document-level problems.
type LoadError struct {
	Path   string
	Index  int
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	prefix := "load stations"
	if e.Path != "" {
		prefix += " " + e.Path
	}
	if e.Index >= 0 {
		prefix = fmt.Sprintf("%s: station %d", prefix, e.Index)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }
