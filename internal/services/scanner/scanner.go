package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/models"
)

// Non-content files excluded from scanning. LICENSE matches any extension.
var ignoreFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^README\.md$`),
	regexp.MustCompile(`(?i)^CHANGELOG\.md$`),
	regexp.MustCompile(`(?i)^CONTRIBUTING\.md$`),
	regexp.MustCompile(`(?i)^LICENSE.*`),
	regexp.MustCompile(`(?i)^CODE_OF_CONDUCT\.md$`),
	regexp.MustCompile(`(?i)^SECURITY\.md$`),
	regexp.MustCompile(`^\..*`),
}

var ignoreDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	".idea":        true,
	".vscode":      true,
}

// Service discovers markdown chapters in a repository working tree. It
// implements interfaces.DocumentScanner.
type Service struct {
	includeReadme bool
	md            goldmark.Markdown
	logger        arbor.ILogger
}

// NewService creates a markdown scanner
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger: logger,
	}
}

// NewServiceWithReadme creates a scanner that includes README files
func NewServiceWithReadme(logger arbor.ILogger) *Service {
	s := NewService(logger)
	s.includeReadme = true
	return s
}

// Scan walks rootPath and returns content units ordered by file path.
// Empty files and non-content files are skipped.
func (s *Service) Scan(rootPath string) ([]models.ContentUnit, error) {
	var units []models.ContentUnit

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != rootPath && ignoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".md") {
			return nil
		}
		if s.shouldIgnore(name) {
			return nil
		}

		relPath, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)

		unit, parseErr := s.parseFile(path, relPath)
		if parseErr != nil {
			s.logger.Warn().
				Str("file", relPath).
				Err(parseErr).
				Msg("Skipping unreadable markdown file")
			return nil
		}
		if unit != nil {
			units = append(units, *unit)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Slice(units, func(i, j int) bool {
		return units[i].FilePath < units[j].FilePath
	})
	for i := range units {
		units[i].OrderIndex = i
	}

	s.logger.Info().
		Str("root", rootPath).
		Int("chapter_count", len(units)).
		Msg("Markdown scan completed")

	return units, nil
}

func (s *Service) shouldIgnore(filename string) bool {
	for _, pattern := range ignoreFilePatterns {
		if s.includeReadme && strings.Contains(pattern.String(), "README") {
			continue
		}
		if pattern.MatchString(filename) {
			return true
		}
	}
	return false
}

func (s *Service) parseFile(fullPath, relPath string) (*models.ContentUnit, error) {
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}

	content := string(data)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	title := s.extractTitle(data)
	if title == "" {
		base := filepath.Base(relPath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	structure := s.ExtractStructure(content)

	return &models.ContentUnit{
		FilePath:       relPath,
		Title:          title,
		Content:        content,
		Fingerprint:    common.Fingerprint(content),
		WordCount:      CountWords(content),
		HeadingCount:   len(structure.Headings),
		CodeBlockCount: len(structure.CodeBlocks),
		ImageCount:     structure.ImageCount,
		LinkCount:      structure.LinkCount,
	}, nil
}

// extractTitle returns the text of the first level-1 heading. Both ATX
// ("# Title") and setext ("Title\n===") forms parse as level-1 headings.
func (s *Service) extractTitle(source []byte) string {
	doc := s.md.Parser().Parse(text.NewReader(source))

	var title string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok && heading.Level == 1 {
			title = strings.TrimSpace(nodeText(heading, source))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	return title
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := child.(*ast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

var (
	fencedCodeRegex = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRegex = regexp.MustCompile("`[^`]+`")
	markdownPunct   = regexp.MustCompile(`[#*_\[\]()>]`)
	cjkCharRegex    = regexp.MustCompile(`\p{Han}`)
	latinWordRegex  = regexp.MustCompile(`[a-zA-Z]+`)
)

// CountWords counts CJK characters plus latin words, with code stripped.
// CJK text has no word boundaries so each character counts as one word.
func CountWords(content string) int {
	content = fencedCodeRegex.ReplaceAllString(content, "")
	content = inlineCodeRegex.ReplaceAllString(content, "")
	content = markdownPunct.ReplaceAllString(content, "")

	cjk := len(cjkCharRegex.FindAllString(content, -1))
	latin := len(latinWordRegex.FindAllString(content, -1))
	return cjk + latin
}
