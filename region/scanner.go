package region

import (
	"fmt"
	"strings"
	"unicode"
)

// Region is one well-formed protected region.
type Region struct {
	Kind Kind

	// BeginLine and EndLine are the marker lines as written, without the
	// trailing newline.
	BeginLine string
	EndLine   string

	// Raw is everything between the marker lines, byte for byte.
	Raw string

	Declarations []Declaration
}

// Declaration is a top-level declaration found inside a region.
type Declaration struct {
	Name string

	// Text spans the directly preceding comment lines through the end of the
	// declaration, trailing blank lines excluded.
	Text string

	// Line is the 1-based line of the declaration keyword in the scanned text.
	Line int
}

// Warning describes a malformed region. The affected region is treated as absent.
type Warning struct {
	Kind    Kind
	Line    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s region: %s", w.Line, w.Kind.Label(), w.Message)
}

// Result of scanning a file.
type Result struct {
	Regions  map[Kind]*Region
	Warnings []Warning
}

type scanState int

const (
	outside scanState = iota
	inside
)

type contentLine struct {
	text    string // with line ending
	lineNo  int
	depth   int // nesting depth at line start
	comment bool
	blank   bool
	name    string // declared name, when the line starts a declaration
}

type scanner struct {
	state   scanState
	kind    Kind
	begin   string
	beginNo int
	lines   []contentLine
	lex     lexer

	regions  map[Kind]*Region
	invalid  map[Kind]bool
	seen     map[Kind]bool
	warnings []Warning
}

// Scan parses text into protected regions. Scan never fails: malformed
// regions (unterminated, nested, duplicated, orphaned END) are dropped and
// reported as warnings.
func Scan(text string) Result {
	s := &scanner{
		regions: make(map[Kind]*Region),
		invalid: make(map[Kind]bool),
		seen:    make(map[Kind]bool),
	}
	for i, line := range splitLines(text) {
		s.line(line, i+1)
	}
	if s.state == inside {
		s.warn(s.kind, s.beginNo, "BEGIN marker is never closed")
		s.invalid[s.kind] = true
	}
	for k := range s.invalid {
		delete(s.regions, k)
	}
	return Result{Regions: s.regions, Warnings: s.warnings}
}

func (s *scanner) warn(k Kind, line int, format string, args ...interface{}) {
	s.warnings = append(s.warnings, Warning{Kind: k, Line: line, Message: fmt.Sprintf(format, args...)})
}

func (s *scanner) line(line string, lineNo int) {
	body := strings.TrimSuffix(line, "\n")
	trimmed := strings.TrimSpace(body)

	switch s.state {
	case outside:
		kind, begin, ok := parseMarker(trimmed)
		if !ok {
			return
		}
		if !begin {
			s.warn(kind, lineNo, "END marker without matching BEGIN")
			s.invalid[kind] = true
			return
		}
		s.open(kind, body, lineNo)

	case inside:
		if s.lex.depth == 0 && !s.lex.inBlock {
			if kind, begin, ok := parseMarker(trimmed); ok {
				s.marker(kind, begin, body, lineNo)
				return
			}
		}
		s.content(line, trimmed, lineNo)
	}
}

func (s *scanner) open(kind Kind, body string, lineNo int) {
	if s.seen[kind] {
		s.warn(kind, lineNo, "region declared more than once")
		s.invalid[kind] = true
	}
	s.seen[kind] = true
	s.state = inside
	s.kind = kind
	s.begin = body
	s.beginNo = lineNo
	s.lines = nil
	s.lex = lexer{}
}

func (s *scanner) marker(kind Kind, begin bool, body string, lineNo int) {
	if begin {
		s.warn(s.kind, lineNo, "nested BEGIN marker for %s", kind.Label())
		s.invalid[s.kind] = true
		s.open(kind, body, lineNo)
		return
	}
	if kind != s.kind {
		s.warn(s.kind, lineNo, "closed by END marker for %s", kind.Label())
		s.invalid[s.kind] = true
		s.invalid[kind] = true
		s.state = outside
		return
	}
	s.close(body)
}

func (s *scanner) content(line, trimmed string, lineNo int) {
	cl := contentLine{
		text:    line,
		lineNo:  lineNo,
		depth:   s.lex.depth,
		blank:   trimmed == "",
		comment: strings.HasPrefix(trimmed, "//") && !s.lex.inBlock,
	}
	if cl.depth == 0 && !s.lex.inBlock {
		cl.name = declaredName(trimmed, s.kind.Keyword())
	}
	s.lex.feed(line)
	s.lines = append(s.lines, cl)
}

func (s *scanner) close(endBody string) {
	var raw strings.Builder
	for _, l := range s.lines {
		raw.WriteString(l.text)
	}
	s.regions[s.kind] = &Region{
		Kind:         s.kind,
		BeginLine:    s.begin,
		EndLine:      endBody,
		Raw:          raw.String(),
		Declarations: declarations(s.lines),
	}
	s.state = outside
}

// declarations splits region content at declaration keyword lines. Comment
// lines directly above a keyword line belong to that declaration.
func declarations(lines []contentLine) []Declaration {
	var starts []int
	for i, l := range lines {
		if l.name != "" {
			starts = append(starts, i)
		}
	}

	var out []Declaration
	prevEnd := 0
	for n, start := range starts {
		from := start
		for from > prevEnd && lines[from-1].comment && lines[from-1].depth == 0 {
			from--
		}
		to := len(lines)
		if n+1 < len(starts) {
			to = starts[n+1]
			for to > start+1 && lines[to-1].comment && lines[to-1].depth == 0 {
				to--
			}
		}
		for to > start+1 && lines[to-1].blank {
			to--
		}

		var text strings.Builder
		for _, l := range lines[from:to] {
			text.WriteString(l.text)
		}
		out = append(out, Declaration{
			Name: lines[start].name,
			Text: strings.TrimRight(text.String(), "\r\n"),
			Line: lines[start].lineNo,
		})
		prevEnd = start + 1
	}
	return out
}

// declaredName returns NAME when trimmed reads "<keyword> NAME ...".
func declaredName(trimmed, keyword string) string {
	kw := strings.Fields(keyword)
	fields := strings.Fields(trimmed)
	if len(fields) <= len(kw) {
		return ""
	}
	for i, w := range kw {
		if fields[i] != w {
			return ""
		}
	}
	candidate := fields[len(kw)]
	end := strings.IndexFunc(candidate, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	if end >= 0 {
		candidate = candidate[:end]
	}
	return candidate
}

// splitLines splits text after every '\n', keeping line endings.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// lexer tracks brace and parenthesis depth, skipping string literals and
// comments. Block comments may span lines; strings may not.
type lexer struct {
	depth   int
	inBlock bool
}

func (l *lexer) feed(line string) {
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case l.inBlock:
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				l.inBlock = false
				i++
			}
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			l.inBlock = true
			i++
		case c == '{' || c == '(':
			l.depth++
		case c == '}' || c == ')':
			if l.depth > 0 {
				l.depth--
			}
		}
	}
}
