package fixture

import (
	"regexp"
	"strings"
)

// metaClassQuery matches the one query shape the fixture understands:
//
//	SELECT * FROM meta_class [WHERE __CLASS LIKE '<pattern>']
var metaClassQuery = regexp.MustCompile(`(?i)^\s*SELECT\s+\*\s+FROM\s+meta_class(?:\s+WHERE\s+__CLASS\s+LIKE\s+'((?:[^']|'')*)')?\s*;?\s*$`)

// parseMetaClassQuery returns the LIKE pattern of a meta_class query
// ("" when unrestricted) and whether the query was recognised.
func parseMetaClassQuery(query string) (pattern string, ok bool) {
	m := metaClassQuery.FindStringSubmatch(query)
	if m == nil {
		return "", false
	}
	return strings.ReplaceAll(m[1], "''", "'"), true
}

// Like reports whether s matches a WQL LIKE pattern. Matching is case
// insensitive. Supported wildcards:
//
//	%       any run of characters, including none
//	_       exactly one character
//	[abc]   one character from the set
//	[a-z]   one character from the range
//	[^abc]  one character not in the set
//
// A ']' right after '[' or '[^' is a set member. A '[' with no closing
// bracket is a literal.
func Like(s, pattern string) bool {
	return likeMatch([]rune(strings.ToLower(s)), []rune(strings.ToLower(pattern)))
}

func likeMatch(s, p []rune) bool {
	for len(p) > 0 {
		switch p[0] {
		case '%':
			for len(p) > 0 && p[0] == '%' {
				p = p[1:]
			}
			if len(p) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if likeMatch(s[i:], p) {
					return true
				}
			}
			return false
		case '_':
			if len(s) == 0 {
				return false
			}
			s, p = s[1:], p[1:]
		case '[':
			end := closingBracket(p)
			if end < 0 {
				// Unterminated set: treat '[' literally.
				if len(s) == 0 || s[0] != '[' {
					return false
				}
				s, p = s[1:], p[1:]
				continue
			}
			if len(s) == 0 || !matchSet(s[0], p[1:end]) {
				return false
			}
			s, p = s[1:], p[end+1:]
		default:
			if len(s) == 0 || s[0] != p[0] {
				return false
			}
			s, p = s[1:], p[1:]
		}
	}
	return len(s) == 0
}

// closingBracket returns the index of the ']' that ends the set opening
// p, or -1 when the set is unterminated. A ']' first in the set, after
// any '^', is a member, so "[]" and "[^]" never form a set on their own.
func closingBracket(p []rune) int {
	start := 1
	if start < len(p) && p[start] == '^' {
		start++
	}
	for i := start + 1; i < len(p); i++ {
		if p[i] == ']' {
			return i
		}
	}
	return -1
}

func matchSet(c rune, set []rune) bool {
	negate := false
	if len(set) > 0 && set[0] == '^' {
		negate = true
		set = set[1:]
	}
	found := false
	for i := 0; i < len(set); i++ {
		if i+2 < len(set) && set[i+1] == '-' {
			if c >= set[i] && c <= set[i+2] {
				found = true
			}
			i += 2
			continue
		}
		if set[i] == c {
			found = true
		}
	}
	return found != negate
}
