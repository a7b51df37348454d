package workforce

import "strings"

// Role outputs use a tagged-text protocol: angle-bracketed regions on the
// literal tag string, with free text and unknown sibling tags tolerated
// around them. The scanner below is total; callers apply documented defaults
// when a tag is absent.

// firstTag returns the trimmed content of the first <name>...</name> region.
// Content may span lines. Returns false when the region is absent or
// unterminated.
func firstTag(s, name string) (string, bool) {
	openTag := "<" + name + ">"
	closeTag := "</" + name + ">"

	start := strings.Index(s, openTag)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(openTag):]
	end := strings.Index(rest, closeTag)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// allTags returns the trimmed contents of every <name>...</name> region in
// order, skipping empty ones.
func allTags(s, name string) []string {
	openTag := "<" + name + ">"
	closeTag := "</" + name + ">"

	var out []string
	for {
		start := strings.Index(s, openTag)
		if start < 0 {
			return out
		}
		s = s[start+len(openTag):]
		end := strings.Index(s, closeTag)
		if end < 0 {
			return out
		}
		if content := strings.TrimSpace(s[:end]); content != "" {
			out = append(out, content)
		}
		s = s[end+len(closeTag):]
	}
}

// taskNames extracts ordered task names from a plan region. Models sometimes
// echo the id-annotated form used in prompts, so both <task>name</task> and
// <task_id:3>name</task_id:3> are accepted. Empty names are dropped.
func taskNames(s string) []string {
	var out []string
	for {
		start := strings.Index(s, "<task")
		if start < 0 {
			return out
		}
		s = s[start+len("<task"):]

		// The open tag is either ">" immediately or an "_id:N..." suffix
		// terminated by ">". Anything else is a different tag.
		switch {
		case strings.HasPrefix(s, ">"):
			s = s[1:]
		case strings.HasPrefix(s, "_id:"):
			gt := strings.Index(s, ">")
			if gt < 0 {
				return out
			}
			s = s[gt+1:]
		default:
			continue
		}

		end := strings.Index(s, "</task")
		if end < 0 {
			return out
		}
		if name := strings.TrimSpace(s[:end]); name != "" {
			out = append(out, name)
		}
		s = s[end:]
	}
}

// graded matches a free-text grade field against a known grade word,
// tolerating sentence framing around the word. The word must stand alone
// at a boundary: "highway" does not grade as "high".
func graded(text, grade string) bool {
	if strings.HasPrefix(text, grade) && !letterAt(text, len(grade)) {
		return true
	}
	if strings.HasSuffix(text, grade) && !letterAt(text, len(text)-len(grade)-1) {
		return true
	}
	return strings.Contains(text, " "+grade+" ")
}

// letterAt reports whether the byte at i is an ASCII letter. Out-of-range
// indexes are not letters, so boundaries at either end of the text match.
func letterAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
