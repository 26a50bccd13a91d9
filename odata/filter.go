package odata

import (
	"fmt"
	"strings"
)

// Literal renders value as an OData literal. Strings are quoted with embedded
// single quotes doubled.
func Literal(value any) string {
	switch typed := value.(type) {
	case nil:
		return "null"
	case string:
		return "'" + strings.ReplaceAll(typed, "'", "''") + "'"
	case bool:
		if typed {
			return "true"
		}
		return "false"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(typed)
	default:
		return Literal(fmt.Sprint(typed))
	}
}

func Eq(field string, value any) string {
	return strings.TrimSpace(field) + " eq " + Literal(value)
}

func SubstringOf(token string, field string) string {
	return "substringof(" + Literal(token) + "," + strings.TrimSpace(field) + ")"
}

// And joins the non-empty clauses.
func And(clauses ...string) string {
	parts := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		if clause = strings.TrimSpace(clause); clause != "" {
			parts = append(parts, clause)
		}
	}
	return strings.Join(parts, " and ")
}

// SearchFilter matches every token as a substring of field.
func SearchFilter(field string, tokens []string) string {
	clauses := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.TrimSpace(token) == "" {
			continue
		}
		clauses = append(clauses, SubstringOf(token, field))
	}
	return And(clauses...)
}
