package action

import (
	"fmt"

	"github.com/dop251/goja"
)

// LintCode compiles each descriptor's code with an embedded JavaScript
// engine and reports syntax errors. This is advisory: a script that fails
// to compile here would throw in the host's sandbox too, but runtime
// behavior belongs entirely to the host, so broken syntax does not fail
// Validate. The script is compiled, never run.
func LintCode(r Registry) []Issue {
	var issues []Issue
	for i, d := range r {
		name := fmt.Sprintf("action-%d.js", i)
		if _, err := goja.Compile(name, d.Code, false); err != nil {
			issues = append(issues, Issue{
				Entry:   i,
				Field:   "code",
				Message: fmt.Sprintf("script does not parse: %v", err),
			})
		}
	}
	return issues
}
