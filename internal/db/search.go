package db

import (
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "is": true,
	"it": true, "and": true, "or": true, "with": true, "from": true,
	"by": true, "this": true, "that": true, "as": true, "be": true,
}

// BuildFTSQuery preprocesses a natural language query for FTS5.
// Splits on whitespace, removes stopwords and words < 3 chars, trims punctuation,
// quotes each term and joins with " OR ".
func BuildFTSQuery(query string) string {
	words := strings.Fields(query)
	var filtered []string
	for _, w := range words {
		// Trim non-letter/digit chars from both ends
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		if len(trimmed) < 3 {
			continue
		}
		if stopwords[strings.ToLower(trimmed)] {
			continue
		}
		filtered = append(filtered, `"`+strings.ReplaceAll(trimmed, `"`, `""`)+`"`)
	}
	return strings.Join(filtered, " OR ")
}

// SearchPlans performs FTS5 search over plan names and phases.
// Returns empty slice if the preprocessed query is empty or if FTS table doesn't exist.
func (d *DB) SearchPlans(query string) ([]Plan, error) {
	ftsQuery := BuildFTSQuery(query)
	if ftsQuery == "" {
		return []Plan{}, nil
	}

	plans, err := d.queryPlans(`
		SELECT p.id, p.name, p.phase, p.fingerprint, p.body, p.rooms, p.doors, p.created_at
		FROM plans p
		JOIN plans_fts fts ON p.id = fts.plan_id
		WHERE plans_fts MATCH ?1
		ORDER BY rank
	`, ftsQuery)
	if err != nil {
		// Gracefully handle missing FTS table
		if strings.Contains(err.Error(), "no such table") {
			return []Plan{}, nil
		}
		return nil, err
	}
	return plans, nil
}
