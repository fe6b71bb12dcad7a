// Package collector walks a Hugo-style content tree and derives the set of
// site-relative URLs a running instance of the site is expected to serve:
// one canonical /<section>/<slug>/ path per article plus any frontmatter
// aliases. The scan is best-effort — unreadable files and malformed
// frontmatter contribute nothing rather than failing the run.
package collector

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	markdownExt = ".md"
	indexFile   = "_index"
)

// slugs that never produce a canonical URL. Aliases on these pages are
// still collected.
var excludedSlugs = map[string]bool{
	indexFile: true,
	"about":   true,
}

// NormalizePath puts a site-relative path into trailing-slash canonical form.
// Already-canonical paths pass through unchanged.
func NormalizePath(p string) string {
	return strings.TrimSuffix(p, "/") + "/"
}

// Collect scans the content tree rooted at contentDir and returns the
// deduplicated, lexicographically sorted set of URLs to check.
func Collect(contentDir string) ([]string, error) {
	if _, err := os.Stat(contentDir); err != nil {
		return nil, fmt.Errorf("content directory %s: %w", contentDir, err)
	}

	rootName := filepath.Base(filepath.Clean(contentDir))
	urlSet := make(map[string]struct{})

	filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, markdownExt) {
			return nil
		}
		// Section landing pages declare no article URL.
		if strings.TrimSuffix(filepath.Base(path), markdownExt) == indexFile {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		fm := ExtractFrontmatter(string(content))

		for _, alias := range fm.Aliases {
			urlSet[NormalizePath(alias)] = struct{}{}
		}

		section := filepath.Base(filepath.Dir(path))
		if section == rootName {
			// File sits directly under the root with no section.
			return nil
		}

		slug := fm.Slug
		if slug == "" {
			slug = strings.TrimSuffix(filepath.Base(path), markdownExt)
		}
		if excludedSlugs[slug] {
			return nil
		}

		urlSet[fmt.Sprintf("/%s/%s/", section, slug)] = struct{}{}
		return nil
	})

	return slices.Sorted(maps.Keys(urlSet)), nil
}
