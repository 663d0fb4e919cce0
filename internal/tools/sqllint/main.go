// Command sqllint verifies that every SQL string constant in the sqlinline
// catalog starts with a `--sql <uuid>` marker line, so the SQLRunner can log
// statements by marker.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	uuidMarkerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"internal/sqlinline"}
	}

	var violations []violation
	seen := map[string]string{}

	for _, target := range targets {
		err := filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			vs, err := lintFile(path, seen)
			if err != nil {
				return err
			}
			violations = append(violations, vs...)
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
	}

	if len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "%s:%d: %s: %s\n", v.file, v.line, v.name, v.message)
		}
		os.Exit(1)
	}
}

func lintFile(path string, seen map[string]string) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, err
	}

	var violations []violation
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, value := range vs.Values {
				lit, ok := value.(*ast.BasicLit)
				if !ok || lit.Kind != token.STRING {
					continue
				}
				text, err := strconv.Unquote(lit.Value)
				if err != nil {
					continue
				}
				if !sqlKeywordPattern.MatchString(text) {
					continue
				}
				name := vs.Names[i].Name
				line := fset.Position(lit.Pos()).Line
				firstLine := strings.TrimSpace(strings.SplitN(strings.TrimSpace(text), "\n", 2)[0])
				if !uuidMarkerPattern.MatchString(firstLine) {
					violations = append(violations, violation{
						file: path, name: name, line: line,
						message: "sql constant is missing a --sql <uuid> marker line",
					})
					continue
				}
				marker := strings.TrimPrefix(firstLine, "--sql ")
				if prev, dup := seen[marker]; dup {
					violations = append(violations, violation{
						file: path, name: name, line: line,
						message: fmt.Sprintf("duplicate marker %s (also used by %s)", marker, prev),
					})
					continue
				}
				seen[marker] = name
			}
		}
	}
	return violations, nil
}
