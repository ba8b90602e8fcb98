package scanner

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one document heading with its nesting level
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// CodeBlock describes one fenced code block
type CodeBlock struct {
	Language string `json:"language"`
	Lines    int    `json:"lines"`
}

// Structure summarizes the markdown elements of a chapter
type Structure struct {
	Headings   []Heading   `json:"headings"`
	CodeBlocks []CodeBlock `json:"code_blocks"`
	ImageCount int         `json:"image_count"`
	LinkCount  int         `json:"link_count"`
	ListCount  int         `json:"list_count"`
	TableCount int         `json:"table_count"`
}

// ExtractStructure parses a chapter and tallies its markdown elements
func (s *Service) ExtractStructure(content string) *Structure {
	source := []byte(content)
	doc := s.md.Parser().Parse(text.NewReader(source))

	structure := &Structure{}
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			structure.Headings = append(structure.Headings, Heading{
				Level: node.Level,
				Text:  strings.TrimSpace(nodeText(node, source)),
			})
		case *ast.FencedCodeBlock:
			lang := "text"
			if info := node.Language(source); len(info) > 0 {
				lang = string(info)
			}
			structure.CodeBlocks = append(structure.CodeBlocks, CodeBlock{
				Language: lang,
				Lines:    node.Lines().Len(),
			})
		case *ast.Image:
			structure.ImageCount++
		case *ast.Link:
			// Anchor links are navigation, not references
			if !strings.HasPrefix(string(node.Destination), "#") {
				structure.LinkCount++
			}
		case *ast.List:
			structure.ListCount++
		case *east.Table:
			structure.TableCount++
		}

		return ast.WalkContinue, nil
	})

	return structure
}
