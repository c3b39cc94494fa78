package engine

import "github.com/roach88/codd/internal/model"

// TupleQuota bounds the size of every intermediate relation.
//
// Natural joins on disjoint headings are cartesian products, so a short
// query over moderate inputs can grow without bound. The quota turns that
// into an error instead of exhausting memory. A limit of zero disables
// the check.
type TupleQuota struct {
	limit int
}

// NewTupleQuota creates a quota with the given limit.
func NewTupleQuota(limit int) TupleQuota {
	return TupleQuota{limit: limit}
}

// Limit returns the configured limit (0 means unlimited).
func (q TupleQuota) Limit() int {
	return q.limit
}

// Check validates rel, produced by operator op, against the limit.
func (q TupleQuota) Check(op string, rel *model.Relation) error {
	if q.limit > 0 && rel.Len() > q.limit {
		return errorf(ErrCodeQuotaExceeded,
			"%s produced %d tuples, more than the limit of %d", op, rel.Len(), q.limit)
	}
	return nil
}
