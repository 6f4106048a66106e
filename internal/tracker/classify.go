package tracker

import (
	"net/url"
	"slices"
	"strings"
)

// Classify maps domain to a category by substring containment against the
// category lists. The unproductive list is checked first, so a domain that
// matches entries in both lists is unproductive.
func Classify(lists CategoryLists, domain string) Category {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" {
		return Neutral
	}
	if matchesAny(lists.Unproductive, d) {
		return Unproductive
	}
	if matchesAny(lists.Productive, d) {
		return Productive
	}
	return Neutral
}

func matchesAny(sites []string, domain string) bool {
	for _, site := range sites {
		site = strings.ToLower(strings.TrimSpace(site))
		// An empty entry would match every domain.
		if site == "" {
			continue
		}
		if strings.Contains(domain, site) {
			return true
		}
	}
	return false
}

// ExtractDomain returns the normalized hostname of rawURL and whether the
// URL is trackable. Only http and https URLs with a host are trackable;
// browser-internal pages and unparseable input are not.
func ExtractDomain(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}
	return host, true
}

// NormalizeLists lowercases and trims every entry, drops empties and
// duplicates, and sorts each list.
func NormalizeLists(lists CategoryLists) CategoryLists {
	return CategoryLists{
		Productive:   normalizeSites(lists.Productive),
		Unproductive: normalizeSites(lists.Unproductive),
	}
}

func normalizeSites(sites []string) []string {
	out := make([]string, 0, len(sites))
	for _, s := range sites {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.TrimPrefix(s, "www.")
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
