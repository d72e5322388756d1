// Package knownissues loads the accepted-issues register from a markdown
// file so the analyzer can annotate recurring defects the team has already
// triaged. The file is YAML frontmatter plus one level-2 section per entry:
//
//	## Stripe sandbox flakiness
//
//	- component: billing
//	- pattern: stripe
//	- reason: Sandbox rate limits, accepted until the Q4 account migration.
//
// Annotation never changes severity or priority; it only marks the issue
// acknowledged with the recorded reason.
package knownissues

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/stackline/qaharness/internal/models"
)

// Entry is one accepted issue from the register.
type Entry struct {
	Title     string
	Component string // matched against affected components, required
	Pattern   string // optional substring matched against the issue narrative
	Reason    string
}

// registerMeta is the frontmatter of the known-issues file.
type registerMeta struct {
	Version int    `yaml:"version"`
	Owner   string `yaml:"owner"`
}

// Register holds the parsed known-issue entries.
type Register struct {
	meta    registerMeta
	entries []Entry
}

// Load reads the register from path. A missing file yields an empty
// register, not an error; a malformed file is an error.
func Load(path string) (*Register, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Register{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read known issues file: %w", err)
	}
	return Parse(content)
}

// Parse parses the markdown register content.
func Parse(content []byte) (*Register, error) {
	reg := &Register{}

	body, frontmatter := extractFrontmatter(content)
	if frontmatter != nil {
		if err := yaml.Unmarshal(frontmatter, &reg.meta); err != nil {
			return nil, fmt.Errorf("parse known issues frontmatter: %w", err)
		}
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(body))

	var current *Entry
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if node.Level != 2 {
				return ast.WalkContinue, nil
			}
			if current != nil {
				reg.appendEntry(*current)
			}
			current = &Entry{Title: nodeText(node, body)}
		case *ast.ListItem:
			if current == nil {
				return ast.WalkContinue, nil
			}
			key, value, ok := splitField(nodeText(node, body))
			if !ok {
				return ast.WalkContinue, nil
			}
			switch key {
			case "component":
				current.Component = value
			case "pattern":
				current.Pattern = value
			case "reason":
				current.Reason = value
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk known issues document: %w", err)
	}
	if current != nil {
		reg.appendEntry(*current)
	}

	return reg, nil
}

// appendEntry keeps only usable entries. Component is the match anchor;
// entries without one can never fire.
func (r *Register) appendEntry(e Entry) {
	if e.Component == "" {
		return
	}
	if e.Reason == "" {
		e.Reason = "accepted known issue: " + e.Title
	}
	r.entries = append(r.entries, e)
}

// Entries returns the parsed entries.
func (r *Register) Entries() []Entry {
	return r.entries
}

// Match reports whether the issue is covered by a register entry. The entry
// component must be among the issue's affected components; when the entry
// carries a pattern it must also appear in the issue's title or description.
func (r *Register) Match(issue models.Issue) (string, bool) {
	narrative := strings.ToLower(issue.Title + " " + issue.Description)

	for _, entry := range r.entries {
		if !containsComponent(issue.AffectedComponents, entry.Component) {
			continue
		}
		if entry.Pattern != "" && !strings.Contains(narrative, strings.ToLower(entry.Pattern)) {
			continue
		}
		return entry.Reason, true
	}
	return "", false
}

func containsComponent(components []string, want string) bool {
	for _, c := range components {
		if strings.EqualFold(c, want) {
			return true
		}
	}
	return false
}

// splitField parses a "key: value" list item.
func splitField(s string) (key, value string, ok bool) {
	idx := strings.Index(s, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(s[:idx]))
	value = strings.TrimSpace(s[idx+1:])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

// nodeText collects the raw text under a node from the source document.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// extractFrontmatter splits a leading --- delimited YAML block from the
// document body. Without one, the whole content is body.
func extractFrontmatter(content []byte) (body, frontmatter []byte) {
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			return bytes.Join(lines[i+1:], []byte("\n")), bytes.Join(lines[1:i], []byte("\n"))
		}
	}
	return content, nil
}
