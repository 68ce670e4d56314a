package settings

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gorilla/css/scanner"
)

// Theme custom properties the extension defines in both rendering frames.
// Referencing anything else via var() only works if the stylesheet declares
// it itself.
var hostThemeProps = map[string]bool{
	"--fg":  true, // foreground
	"--bg":  true, // background
	"--bd":  true, // border
	"--lk":  true, // link
	"--lkv": true, // visited link
	"--hg":  true, // highlight
}

// CSSIssue is one advisory lint finding in a stylesheet.
type CSSIssue struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (i CSSIssue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", i.File, i.Line, i.Column, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.File, i.Message)
}

var (
	customPropDeclRe = regexp.MustCompile(`(?:^|[\s{;])(--[A-Za-z][A-Za-z0-9_-]*)\s*:`)
	customPropVarRe  = regexp.MustCompile(`var\(\s*(--[A-Za-z][A-Za-z0-9_-]*)`)
)

// LintCSS tokenizes a stylesheet and reports advisory problems: scanner
// errors, unbalanced braces, and var() references to custom properties the
// host does not define and the stylesheet does not declare. CSS is
// otherwise free-form; the host injects it verbatim into a <style> element.
func LintCSS(file, src string) []CSSIssue {
	var issues []CSSIssue

	depth := 0
	s := scanner.New(src)
	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF {
			break
		}
		if tok.Type == scanner.TokenError {
			issues = append(issues, CSSIssue{
				File:    file,
				Line:    tok.Line,
				Column:  tok.Column,
				Message: fmt.Sprintf("scan error near %q", tok.Value),
			})
			break
		}
		if tok.Type == scanner.TokenChar {
			switch tok.Value {
			case "{":
				depth++
			case "}":
				depth--
				if depth < 0 {
					issues = append(issues, CSSIssue{
						File:    file,
						Line:    tok.Line,
						Column:  tok.Column,
						Message: "unmatched closing brace",
					})
					depth = 0
				}
			}
		}
	}
	if depth > 0 {
		issues = append(issues, CSSIssue{
			File:    file,
			Message: fmt.Sprintf("%d unclosed brace(s)", depth),
		})
	}

	// Custom properties are matched on the raw text: the CSS2-era scanner
	// does not treat --name as a single ident.
	declared := make(map[string]bool)
	for _, m := range customPropDeclRe.FindAllStringSubmatch(src, -1) {
		declared[m[1]] = true
	}
	for lineNo, line := range strings.Split(src, "\n") {
		for _, m := range customPropVarRe.FindAllStringSubmatchIndex(line, -1) {
			name := line[m[2]:m[3]]
			if hostThemeProps[name] || declared[name] {
				continue
			}
			issues = append(issues, CSSIssue{
				File:    file,
				Line:    lineNo + 1,
				Column:  m[2] + 1,
				Message: fmt.Sprintf("var(%s) is neither a host theme property nor declared in this stylesheet", name),
			})
		}
	}

	return issues
}
