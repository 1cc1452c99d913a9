// Package parser reads Markdown plan files into task specifications. A plan
// is a document with `## Task N: Name` sections, each optionally carrying a
// `**Depends on**:` line listing prerequisite task numbers.
package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// TaskSpec is one parsed task section.
type TaskSpec struct {
	Number      string
	Name        string
	Description string
	DependsOn   []string
}

// PlanDoc is a parsed plan file.
type PlanDoc struct {
	Title string
	Tasks []TaskSpec
}

var (
	taskHeadingRegex = regexp.MustCompile(`^Task\s+(\d+):\s+(.+)$`)
	taskLineRegex    = regexp.MustCompile("^##\\s+Task\\s+(\\d+):\\s+(.+)$")
	dependsOnRegex   = regexp.MustCompile(`(?i)^\*\*Depends on\*\*:\s*(.+)$`)
)

// MarkdownParser parses plan files.
type MarkdownParser struct {
	markdown goldmark.Markdown
}

// NewMarkdownParser creates a parser with default goldmark settings.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		markdown: goldmark.New(),
	}
}

// ParseFile reads and parses a plan file from disk.
func (p *MarkdownParser) ParseFile(path string) (*PlanDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return p.Parse(data)
}

// Parse parses plan content. The document title is taken from the first
// level-1 heading; tasks from level-2 `Task N:` headings. A plan with no
// task sections is an error.
func (p *MarkdownParser) Parse(content []byte) (*PlanDoc, error) {
	doc := p.markdown.Parser().Parse(text.NewReader(content))

	plan := &PlanDoc{}

	// Walk the AST for the title and to confirm task headings exist with
	// proper structure. Section bodies are collected line by line below,
	// which is more reliable for metadata extraction.
	taskHeadings := 0
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		headingText := extractText(heading, content)
		switch heading.Level {
		case 1:
			if plan.Title == "" {
				plan.Title = headingText
			}
		case 2:
			if taskHeadingRegex.MatchString(headingText) {
				taskHeadings++
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk plan document: %w", err)
	}

	if taskHeadings == 0 {
		return nil, fmt.Errorf("plan contains no task sections")
	}

	tasks, err := extractTasksLineByLine(content)
	if err != nil {
		return nil, err
	}
	plan.Tasks = tasks

	return plan, nil
}

// extractTasksLineByLine collects task sections and their metadata,
// skipping fenced code blocks so example headings inside them are ignored.
func extractTasksLineByLine(content []byte) ([]TaskSpec, error) {
	var tasks []TaskSpec
	var current *TaskSpec
	var body strings.Builder
	inCodeBlock := false

	finish := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(body.String())
		tasks = append(tasks, *current)
		current = nil
		body.Reset()
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			if current != nil {
				body.WriteString(line)
				body.WriteString("\n")
			}
			continue
		}
		if inCodeBlock {
			if current != nil {
				body.WriteString(line)
				body.WriteString("\n")
			}
			continue
		}

		if matches := taskLineRegex.FindStringSubmatch(line); len(matches) == 3 {
			finish()
			current = &TaskSpec{
				Number: matches[1],
				Name:   strings.TrimSpace(matches[2]),
			}
			continue
		}

		if current == nil {
			continue
		}

		// Another level-2 section ends the task.
		if strings.HasPrefix(line, "## ") {
			finish()
			continue
		}

		if matches := dependsOnRegex.FindStringSubmatch(strings.TrimSpace(line)); len(matches) == 2 {
			current.DependsOn = parseDependsOn(matches[1])
			continue
		}

		body.WriteString(line)
		body.WriteString("\n")
	}
	finish()

	return tasks, nil
}

// parseDependsOn splits a dependency list like "1, 2" into task numbers.
// "None" and "-" mean no dependencies.
func parseDependsOn(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "none") || value == "-" {
		return nil
	}

	var deps []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), "`"))
		part = strings.TrimPrefix(part, "Task ")
		if part != "" {
			deps = append(deps, part)
		}
	}
	return deps
}

// extractText extracts the plain text of an AST node's children.
func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
	}
	return sb.String()
}
