package store

import (
	"fmt"
	"strings"
)

// PostFilter narrows a post listing. Zero-valued fields are ignored, so the
// filter can be built directly from optional request parameters without any
// dynamic query assembly at call sites.
type PostFilter struct {
	UserID     int
	Category   string
	Slug       string
	PostID     int
	SearchTerm string
}

// whereClause renders the filter as a SQL WHERE clause and its arguments.
// Returns an empty string when no field is set. Placeholders start at $1.
func (f PostFilter) whereClause() (string, []any) {
	var conditions []string
	var args []any

	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if f.UserID != 0 {
		add("user_id = $%d", f.UserID)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Slug != "" {
		add("slug = $%d", f.Slug)
	}
	if f.PostID != 0 {
		add("id = $%d", f.PostID)
	}
	if f.SearchTerm != "" {
		args = append(args, "%"+escapeLike(f.SearchTerm)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", n, n))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
