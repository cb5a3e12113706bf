package sandbox

import (
	"regexp"
	"strings"
)

const entryPointName = "runSnippet"

var (
	packageClause    = regexp.MustCompile(`(?m)^\s*package\s+\w+`)
	mainDeclaration  = regexp.MustCompile(`(?m)^func\s+main\s*\(\s*\)`)
	singleImportLine = regexp.MustCompile(`^import\s+(\w+\s+)?"[^"]+"\s*$`)
)

// Prepare turns a snippet into a main package whose entry point is runSnippet.
// Complete programs keep their layout with func main renamed. Top-level
// statements are wrapped into runSnippet, with imports and top-level
// func/type declarations hoisted out of the body.
func Prepare(source string) string {
	trimmed := strings.TrimSpace(source)
	if packageClause.MatchString(trimmed) {
		renamed := packageClause.ReplaceAllString(trimmed, "package main")
		return mainDeclaration.ReplaceAllString(renamed, "func "+entryPointName+"()")
	}

	imports, declarations, statements := splitSnippet(trimmed)
	var builder strings.Builder
	builder.WriteString("package main\n\n")
	for _, importLine := range imports {
		builder.WriteString(importLine)
		builder.WriteString("\n")
	}
	hasMain := false
	for _, declaration := range declarations {
		if mainDeclaration.MatchString(declaration) {
			declaration = mainDeclaration.ReplaceAllString(declaration, "func "+entryPointName+"()")
			hasMain = true
		}
		builder.WriteString("\n")
		builder.WriteString(declaration)
		builder.WriteString("\n")
	}
	if hasMain {
		return builder.String()
	}
	builder.WriteString("\nfunc " + entryPointName + "() {\n")
	for _, statement := range statements {
		builder.WriteString(statement)
		builder.WriteString("\n")
	}
	builder.WriteString("}\n")
	return builder.String()
}

func splitSnippet(source string) (imports []string, declarations []string, statements []string) {
	lines := strings.Split(source, "\n")
	for index := 0; index < len(lines); index++ {
		line := lines[index]
		trimmedLine := strings.TrimSpace(line)
		switch {
		case singleImportLine.MatchString(trimmedLine):
			imports = append(imports, trimmedLine)
		case trimmedLine == "import (":
			end := closingLine(lines, index, ")")
			imports = append(imports, strings.Join(lines[index:end+1], "\n"))
			index = end
		case isTopLevelDeclaration(line):
			end := index
			if strings.HasSuffix(trimmedLine, "{") || strings.HasSuffix(trimmedLine, "(") {
				end = closingLine(lines, index, "}")
				if strings.HasSuffix(trimmedLine, "(") {
					end = closingLine(lines, index, ")")
				}
			}
			declarations = append(declarations, strings.Join(lines[index:end+1], "\n"))
			index = end
		default:
			statements = append(statements, line)
		}
	}
	return imports, declarations, statements
}

func isTopLevelDeclaration(line string) bool {
	return strings.HasPrefix(line, "func ") || strings.HasPrefix(line, "type ")
}

// closingLine finds the first later line consisting only of closer at column zero.
func closingLine(lines []string, start int, closer string) int {
	for index := start + 1; index < len(lines); index++ {
		if strings.TrimRight(lines[index], " \t\r") == closer {
			return index
		}
	}
	return len(lines) - 1
}
