package gitignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const decisionCacheSize = 4096

// Matcher holds compiled rules. Safe for concurrent use.
type Matcher struct {
	mu        sync.RWMutex
	rules     []rule
	decisions *lru.Cache[string, bool]
}

type rule struct {
	re       *regexp.Regexp
	negate   bool
	dirOnly  bool
	anchored bool   // pattern contains a slash; matched against path prefixes
	base     string // directory of the .gitignore the rule came from
}

// New creates an empty Matcher.
func New() *Matcher {
	cache, _ := lru.New[string, bool](decisionCacheSize)
	return &Matcher{decisions: cache}
}

// AddPattern adds one root-level pattern line.
func (m *Matcher) AddPattern(line string) {
	m.AddPatternWithBase(line, "")
}

// AddPatternWithBase adds a pattern line scoped to base, a slash-separated
// directory relative to the project root.
func (m *Matcher) AddPatternWithBase(line, base string) {
	r, ok := compile(line, filepath.ToSlash(base))
	if !ok {
		return
	}
	m.mu.Lock()
	m.rules = append(m.rules, r)
	m.decisions.Purge()
	m.mu.Unlock()
}

// AddFromFile adds every pattern in a .gitignore file, scoped to base.
func (m *Matcher) AddFromFile(path, base string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open gitignore file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.AddPatternWithBase(sc.Text(), base)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read gitignore file: %w", err)
	}
	return nil
}

// Len returns the number of compiled rules.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rules)
}

// Match reports whether the relative path is ignored. The last matching
// rule wins, so a later negation re-includes a path.
func (m *Matcher) Match(path string, isDir bool) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	key := path
	if isDir {
		key += "/"
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, ok := m.decisions.Get(key); ok {
		return v
	}

	ignored := false
	for i := range m.rules {
		if m.rules[i].matches(path, isDir) {
			ignored = !m.rules[i].negate
		}
	}
	m.decisions.Add(key, ignored)
	return ignored
}

func compile(line, base string) (rule, bool) {
	escapedSpace := strings.HasSuffix(line, `\ `)
	p := strings.TrimSpace(line)
	if p == "" || strings.HasPrefix(p, "#") {
		return rule{}, false
	}

	r := rule{base: strings.Trim(base, "/")}
	switch {
	case strings.HasPrefix(p, `\#`), strings.HasPrefix(p, `\!`):
		p = p[1:]
	case strings.HasPrefix(p, "!"):
		r.negate = true
		p = p[1:]
	}
	if escapedSpace && strings.HasSuffix(p, `\`) {
		p = strings.TrimSuffix(p, `\`) + " "
	}
	if strings.HasSuffix(p, "/") {
		r.dirOnly = true
		p = strings.TrimSuffix(p, "/")
	}
	if strings.Contains(p, "/") {
		r.anchored = true
		p = strings.TrimPrefix(p, "/")
	}
	if p == "" {
		return rule{}, false
	}

	re, err := regexp.Compile("^" + translate(p) + "$")
	if err != nil {
		return rule{}, false
	}
	r.re = re
	return r, true
}

func (r *rule) matches(path string, isDir bool) bool {
	if r.base != "" {
		if !strings.HasPrefix(path, r.base+"/") {
			return false
		}
		path = strings.TrimPrefix(path, r.base+"/")
	}

	parts := strings.Split(path, "/")
	last := len(parts) - 1
	for i := range parts {
		candidate := parts[i]
		if r.anchored {
			candidate = strings.Join(parts[:i+1], "/")
		}
		if !r.re.MatchString(candidate) {
			continue
		}
		// A matched ancestor directory excludes everything below it.
		if i < last {
			return true
		}
		return !r.dirOnly || isDir
	}
	return false
}

// translate converts glob syntax to a regular expression body.
func translate(p string) string {
	var b strings.Builder
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch c {
		case '*':
			if strings.HasPrefix(p[i:], "**/") {
				b.WriteString("(?:.*/)?")
				i += 2
			} else if strings.HasPrefix(p[i:], "**") && (i == 0 || p[i-1] == '/') {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '[':
			if j := strings.IndexByte(p[i:], ']'); j > 1 {
				class := p[i+1 : i+j]
				if strings.HasPrefix(class, "!") {
					class = "^" + class[1:]
				}
				b.WriteString("[" + class + "]")
				i += j
			} else {
				b.WriteString(`\[`)
			}
		case '\\':
			if i+1 < len(p) {
				i++
				b.WriteString(regexp.QuoteMeta(string(p[i])))
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}
