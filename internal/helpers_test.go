package internal

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/AeonDave/svxor/obf"
)

// writeFile is a helper function for creating test files
func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(content)
}

// decodeGenerated parses a generated file and unlocks every accessor it
// declares, returning name -> plaintext and the ids of the lookup table.
func decodeGenerated(t *testing.T, path string) (map[string]string, map[int]string) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		t.Fatalf("generated file does not parse: %v", err)
	}

	var buildKey uint64
	table := make(map[int]string)
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok == token.IMPORT {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			switch vs.Names[0].Name {
			case "svxorBuildKey":
				buildKey = parseUint(t, vs.Values[0].(*ast.BasicLit).Value)
			case "svxorTable":
				entries := vs.Values[0].(*ast.CallExpr).Args[0].(*ast.CompositeLit)
				for _, elt := range entries.Elts {
					kv := elt.(*ast.KeyValueExpr)
					id := int(parseUint(t, kv.Key.(*ast.BasicLit).Value))
					table[id] = kv.Value.(*ast.Ident).Name
				}
			}
		}
	}

	values := make(map[string]string)
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Name.Name == "svxorLookup" {
			continue
		}
		call := fn.Body.List[0].(*ast.ReturnStmt).Results[0].(*ast.CallExpr)
		if sel := call.Fun.(*ast.SelectorExpr).Sel.Name; sel != "Sealed" {
			t.Fatalf("%s calls %s, want Sealed", fn.Name.Name, sel)
		}

		var cipher []byte
		for _, elt := range call.Args[0].(*ast.CompositeLit).Elts {
			cipher = append(cipher, byte(parseUint(t, elt.(*ast.BasicLit).Value)))
		}
		mode := obf.Light
		if call.Args[1].(*ast.SelectorExpr).Sel.Name == "Heavy" {
			mode = obf.Heavy
		}
		salt := parseUint(t, call.Args[2].(*ast.BinaryExpr).Y.(*ast.BasicLit).Value)

		s := obf.Sealed(cipher, mode, obf.InstanceKey(buildKey, salt))
		values[fn.Name.Name] = s.Text()
		s.Destroy()
	}
	return values, table
}

func parseUint(t *testing.T, lit string) uint64 {
	t.Helper()
	v, err := strconv.ParseUint(lit, 0, 64)
	if err != nil {
		t.Fatalf("parse %q: %v", lit, err)
	}
	return v
}

func reproducible() *Config {
	return &Config{Mode: obf.Light, Output: DefaultOutput, Reproducible: true}
}
