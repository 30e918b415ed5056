// Package gitignore decides whether a project path is excluded by
// .gitignore rules (https://git-scm.com/docs/gitignore).
//
// Rules from nested .gitignore files are scoped to their directory:
//
//	m := gitignore.New()
//	_ = m.AddFromFile("/repo/.gitignore", "")
//	_ = m.AddFromFile("/repo/web/.gitignore", "web")
//	m.Match("web/dist/app.js", false)
//
// Decisions are memoized in a small LRU and discarded whenever rules change.
package gitignore
