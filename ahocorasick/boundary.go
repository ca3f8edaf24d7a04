package ahocorasick

func allowedPrefix(c rune) bool {
	switch c {
	case ' ', '(', '[', '{', '/':
		return true
	}

	return false
}

func allowedPostfix(c rune) bool {
	switch c {
	case ' ', ',', '.', '\'', '?', '!', ')', ']', '}', '/':
		return true
	}

	return false
}

// FilterBoundaries keeps the matches that sit on word boundaries of
// haystack, which should be lower-cased the same way the patterns were.
//
// A match must be preceded by nothing or an allowed prefix character, and
// followed by nothing or an allowed postfix character. A single trailing 's'
// ("cats") is also accepted when the match does not already end in 's' and
// the 's' is itself followed by nothing or an allowed postfix. The returned
// match then includes the 's'.
//
// The input slice is not modified.
func FilterBoundaries(haystack string, matches []Match) []Match {
	h := []rune(haystack)

	var out []Match
	for _, m := range matches {
		if m.Start > 0 && !allowedPrefix(h[m.Start-1]) {
			continue
		}

		if m.End >= len(h) || allowedPostfix(h[m.End]) {
			out = append(out, m)
			continue
		}

		if m.End > 0 && h[m.End-1] != 's' && h[m.End] == 's' && (m.End+1 >= len(h) || allowedPostfix(h[m.End+1])) {
			m.End++
			out = append(out, m)
		}
	}

	return out
}
