package pm

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// PageRequest is the shared offset/limit input for every list operation.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest applies the defaults (page 1, limit 10) and clamps the
// limit into [1, 100].
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset returns the number of records to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageCursor points at an adjacent page.
type PageCursor struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// PageInfo carries the next/prev cursors; each is present only when a page
// exists in that direction.
type PageInfo struct {
	Next *PageCursor `json:"next,omitempty"`
	Prev *PageCursor `json:"prev,omitempty"`
}

// Paginate computes the cursors for a page request against the total number
// of matching records.
func Paginate(req PageRequest, total int) PageInfo {
	var info PageInfo
	if req.Page*req.Limit < total {
		info.Next = &PageCursor{Page: req.Page + 1, Limit: req.Limit}
	}
	if req.Offset() > 0 {
		info.Prev = &PageCursor{Page: req.Page - 1, Limit: req.Limit}
	}
	return info
}
