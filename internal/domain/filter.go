package domain

import "strings"

// Predicate reports whether a repository belongs on the portfolio.
type Predicate func(Repository) bool

// PagesEnabled keeps repositories that publish a GitHub Pages site.
func PagesEnabled(r Repository) bool {
	return r.HasPages
}

// NotFork drops forked repositories.
func NotFork(r Repository) bool {
	return !r.Fork
}

// NotUserSite drops the repository serving the user's own site ("{user}.github.io").
// The comparison ignores case.
func NotUserSite(user string) Predicate {
	site := UserSiteName(user)
	return func(r Repository) bool {
		return !strings.EqualFold(r.Name, site)
	}
}

// Filter returns the repositories satisfying every predicate, in their original order.
// The result is never nil.
func Filter(repos []Repository, preds ...Predicate) []Repository {
	kept := make([]Repository, 0, len(repos))
next:
	for _, r := range repos {
		for _, p := range preds {
			if !p(r) {
				continue next
			}
		}
		kept = append(kept, r)
	}
	return kept
}
