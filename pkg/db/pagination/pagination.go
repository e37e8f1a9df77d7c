package pagination

// DefaultLimit is the page size used by listing endpoints.
const DefaultLimit = 20

type Pagination struct {
	Page  int `form:"page,default=0"`
	Limit int `form:"limit,default=20" validate:"gte=1,lte=100"`
}

// Normalize clamps negative pages and fills in the default page size.
func (p Pagination) Normalize() Pagination {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// Offset is the row offset of the requested page.
func (p Pagination) Offset() int {
	n := p.Normalize()
	return n.Page * n.Limit
}
