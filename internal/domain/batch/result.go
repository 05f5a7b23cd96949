// Package batch holds per-document outcomes of a bulk indexing run.
package batch

// ItemStatus is the processing outcome of a single document.
type ItemStatus string

// Document status values. The zero value means the document was never processed.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of indexing one chunk document.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewError creates a failed result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the document identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Done reports whether the document reached an outcome.
func (r Result) Done() bool { return r.status != "" }

// Tally counts successful and failed results. Pending results are not counted.
func Tally(results []Result) (ok, failed int) {
	for _, r := range results {
		switch r.status {
		case StatusOK:
			ok++
		case StatusError:
			failed++
		}
	}
	return ok, failed
}

// Failed returns up to n failed results in order. n <= 0 returns all of them.
func Failed(results []Result, n int) []Result {
	var out []Result
	for _, r := range results {
		if r.status != StatusError {
			continue
		}
		out = append(out, r)
		if len(out) == n {
			break
		}
	}
	return out
}
