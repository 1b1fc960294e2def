package search

import (
	"consensus-chat/domain"
	"strconv"
	"strings"
)

const defaultLimit = 10

// Query is a parsed /search command.
// Example: /search "quarterly report" --kind agent --from alice --limit 5
type Query struct {
	RawInput string
	Terms    string
	Kind     domain.MessageKind // empty means every kind
	Author   string
	Limit    int
}

// NewQuery parses a raw command line. Flags without a value are
// treated as search terms; the leading /command word is ignored.
func NewQuery(input string) Query {
	query := Query{
		RawInput: input,
		Limit:    defaultLimit,
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			val := parts[i+1]
			switch strings.TrimPrefix(part, "--") {
			case "kind":
				query.Kind = domain.MessageKind(strings.ToLower(val))
			case "from":
				query.Author = strings.ToLower(val)
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					query.Limit = n
				}
			default:
				textTerms = append(textTerms, part, val)
			}
			i++ // Skip the value part in next iteration
			continue
		}

		if i == 0 && strings.HasPrefix(part, "/") {
			continue
		}
		textTerms = append(textTerms, strings.Trim(part, `"`))
	}

	query.Terms = strings.TrimSpace(strings.Join(textTerms, " "))
	return query
}

// Empty reports whether the query would match everything.
func (q Query) Empty() bool {
	return q.Terms == "" && q.Kind == "" && q.Author == ""
}
