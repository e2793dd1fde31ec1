package repository

import (
	"strings"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
)

// likeEscaper escapes LIKE wildcards so user input matches literally.
// Backslash is MySQL's default LIKE escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// listingWhere builds the WHERE clause of the listing feed.  Only the
// criteria present in f contribute a clause; all clauses are AND-ed.
func listingWhere(f model.ListingFilter) (string, []any) {
	where := []string{}
	args := []any{}

	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(LOWER(l.title) LIKE ? OR LOWER(COALESCE(l.description,'')) LIKE ?)")
		p := containsPattern(s)
		args = append(args, p, p)
	}
	if s := strings.TrimSpace(f.District); s != "" {
		where = append(where, "LOWER(l.district) LIKE ?")
		args = append(args, containsPattern(s))
	}
	if s := strings.TrimSpace(f.Age); s != "" {
		where = append(where, "LOWER(COALESCE(l.age,'')) LIKE ?")
		args = append(args, containsPattern(s))
	}
	if s := strings.TrimSpace(f.Size); s != "" {
		where = append(where, "LOWER(COALESCE(l.size,'')) LIKE ?")
		args = append(args, containsPattern(s))
	}
	if f.MinPrice != nil {
		where = append(where, "l.price >= ?")
		args = append(args, f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		where = append(where, "l.price <= ?")
		args = append(args, f.MaxPrice.String())
	}

	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}
