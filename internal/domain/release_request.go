package domain

import "time"

type ReleaseResult string

const (
	ReleaseResultApproved ReleaseResult = "approved"
	ReleaseResultDenied   ReleaseResult = "denied"
)

// ReleaseRequest asks the holder (or an admin) to free a cabin that is
// actively held by someone else. Approval releases the hold transactionally;
// denial leaves the hold untouched.
type ReleaseRequest struct {
	ID          string
	HoldID      string
	RequestedBy string
	Reason      string
	Result      ReleaseResult // empty while unresolved
	ResolvedAt  *time.Time
	CreatedAt   time.Time
}

// Resolved reports whether the request has already been approved or denied.
func (r ReleaseRequest) Resolved() bool {
	return r.ResolvedAt != nil
}
