package etl

import (
	_ "embed"
	"strings"
)

// SchemaScript is the constraint/index bootstrap executed before every run.
// The pipeline treats it as an opaque statement list.
//
//go:embed schema.cypher
var SchemaScript string

// SplitStatements splits a Cypher script on semicolons, dropping blank
// statements and lines starting with //.
func SplitStatements(script string) []string {
	var statements []string
	for _, raw := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "//") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		statements = append(statements, strings.Join(lines, "\n"))
	}
	return statements
}
