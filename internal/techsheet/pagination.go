package techsheet

// HistoryPageSize is the fixed client-side page size for service history.
const HistoryPageSize = 5

// HistoryPage returns the requested page of history entries along with the
// clamped page index and the total page count. The page index is clamped to
// [0, totalPages-1]; an empty history still yields one (empty) page.
func HistoryPage(entries []HistoryEntry, page int) ([]HistoryEntry, int, int) {
	totalPages := (len(entries) + HistoryPageSize - 1) / HistoryPageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * HistoryPageSize
	end := start + HistoryPageSize
	if start > len(entries) {
		start = len(entries)
	}
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end], page, totalPages
}
