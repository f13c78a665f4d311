package core

// Paginate returns the half-open window [(page-1)*pageSize, page*pageSize)
// of rows. A page or pageSize of zero or less disables paging and returns
// rows unchanged. A window starting past the end yields an empty slice; the
// page is never clamped.
func Paginate(rows []Row, page, pageSize int) []Row {
	if page <= 0 || pageSize <= 0 {
		return rows
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []Row{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// PageInfo describes the pager state for a view.
type PageInfo struct {
	Page       int // Requested page (1-based); 0 when paging is off
	PageSize   int
	Total      int // Post-filter row count
	TotalPages int
	RangeStart int // 1-based index of the first visible row; 0 when empty
	RangeEnd   int // 1-based index of the last visible row; 0 when empty
}

// NewPageInfo computes pager metadata for total rows.
func NewPageInfo(total, page, pageSize int) PageInfo {
	info := PageInfo{Total: total}
	if page <= 0 || pageSize <= 0 {
		if total > 0 {
			info.TotalPages = 1
			info.RangeStart = 1
			info.RangeEnd = total
		}
		return info
	}

	info.Page = page
	info.PageSize = pageSize
	info.TotalPages = (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start >= total {
		return info
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	info.RangeStart = start + 1
	info.RangeEnd = end
	return info
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p PageInfo) HasNext() bool { return p.Page > 0 && p.Page < p.TotalPages }
