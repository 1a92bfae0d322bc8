package leave

import "context"

// Store persists leave-request rows. Implementations define record identity
// (uuid or row position) and must apply Update atomically: the mutator sees
// the current record and either its changes commit as a unit or the row is
// left untouched.
//
// Filtering (pending per student, latest granted) happens in the service
// over LoadAll; the workload is small enough that implementations do not
// need query methods.
type Store interface {
	LoadAll(ctx context.Context) ([]Request, error)
	Append(ctx context.Context, req Request) (string, error)
	Update(ctx context.Context, id string, mutate func(*Request) error) error
}
