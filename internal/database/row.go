package database

import "github.com/koustreak/dbferry/internal/errs"

// CollectValues reads every row of the result set as a slice of raw values
// in column order.
//
// The returned slice is always non-nil (empty slice on zero rows).
// CollectValues always closes the Rows; callers do not need to call Close().
func CollectValues(rows Rows) ([][]any, error) {
	defer rows.Close()

	result := make([][]any, 0)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read row values", err)
		}
		// Drivers may reuse the backing array between rows.
		row := make([]any, len(vals))
		copy(row, vals)
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}
	return result, nil
}
