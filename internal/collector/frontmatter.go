package collector

import (
	"bufio"
	"regexp"
	"strings"
)

// Frontmatter holds the two metadata fields the collector cares about.
// Everything else in the block is ignored.
type Frontmatter struct {
	Slug    string
	Aliases []string
}

var aliasItemRe = regexp.MustCompile(`^\s*-\s*"?(/[^\s"]+)"?`)

// ExtractFrontmatter parses the leading "---"-delimited block of a document.
// It is a best-effort, line-oriented scan recognizing exactly the slug: and
// aliases: keys; content without a well-formed block yields the zero value.
func ExtractFrontmatter(content string) Frontmatter {
	var fm Frontmatter

	if !strings.HasPrefix(content, "---") {
		return fm
	}

	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return fm
	}

	scanner := bufio.NewScanner(strings.NewReader(parts[1]))
	inAliases := false

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "slug:"):
			fm.Slug = strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "slug:")), `"`)
			inAliases = false

		case strings.HasPrefix(line, "aliases:"):
			inAliases = true

		case inAliases:
			if m := aliasItemRe.FindStringSubmatch(line); m != nil {
				fm.Aliases = append(fm.Aliases, m[1])
			} else if len(line) > 0 && line[0] != ' ' && line[0] != '\t' {
				// Any non-indented key closes the list.
				inAliases = false
			}
		}
	}

	return fm
}
