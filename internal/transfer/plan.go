package transfer

import "github.com/koustreak/dbferry/internal/errs"

// Batch is the row window [Offset, Offset+Size) of one table.
type Batch struct {
	Offset int64
	Size   int64
}

// End returns the exclusive upper bound of the window.
func (b Batch) End() int64 { return b.Offset + b.Size }

// PlanBatches splits total rows into consecutive windows of size rows.
// The last window is clamped to total, so windows never overlap and
// together cover [0, total) exactly once.
func PlanBatches(total, size int64) ([]Batch, error) {
	if size <= 0 {
		return nil, errs.Errorf(errs.ErrKindInvalidInput, "batch size must be positive, got %d", size)
	}
	if total < 0 {
		return nil, errs.Errorf(errs.ErrKindInvalidInput, "negative row count %d", total)
	}

	batches := make([]Batch, 0, (total+size-1)/size)
	for offset := int64(0); offset < total; offset += size {
		batches = append(batches, Batch{Offset: offset, Size: min(size, total-offset)})
	}
	return batches, nil
}
