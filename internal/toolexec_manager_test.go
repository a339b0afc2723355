package internal

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestToolexecHelpers(t *testing.T) {
	tm := NewToolexecManager()

	if !tm.isCompilerTool("/usr/local/go/pkg/tool/linux_amd64/compile") || !tm.isCompilerTool("/go/pkg/tool/windows_amd64/compile.exe") {
		t.Error("compiler not recognised")
	}
	if tm.isCompilerTool("/usr/local/go/pkg/tool/linux_amd64/link") {
		t.Error("linker treated as compiler")
	}

	args := []string{"-o", "out.a", "-p", "main", "-pack", "./main.go", "helper.go", "-trimpath=x.go", "notes.txt"}
	files := tm.extractGoFiles(args)
	if len(files) != 2 || files[0] != "./main.go" || files[1] != "helper.go" {
		t.Errorf("extractGoFiles = %v", files)
	}

	if tm.isExternalTestPackage(args, files) {
		t.Error("main package reported as external test")
	}
	if !tm.isExternalTestPackage([]string{"-p", "pkg_test", "a_test.go"}, []string{"a_test.go"}) {
		t.Error("-p pkg_test not detected")
	}
	if !tm.isExternalTestPackage(nil, []string{"a_test.go", "b_test.go"}) {
		t.Error("test-only file set not detected")
	}
	if tm.isExternalTestPackage(nil, []string{"a.go", "a_test.go"}) {
		t.Error("internal test package reported as external")
	}
}

func TestToolexecContainsFile(t *testing.T) {
	tm := NewToolexecManager()
	dir := t.TempDir()
	target := filepath.Join(dir, DefaultOutput)

	if !tm.containsFile([]string{filepath.Join(dir, ".", DefaultOutput)}, target) {
		t.Error("unclean path not matched")
	}
	if tm.containsFile([]string{filepath.Join(dir, "main.go")}, target) {
		t.Error("different file matched")
	}
}

func TestToolexecGenerate(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module testmod\ngo 1.22\n")
	writeFile(t, dir, "literals.go", literalFile)
	mainFile := writeFile(t, dir, "main.go", "package main\n\nfunc main() { _ = greeting() }\n")

	tm := NewToolexecManager()
	args := []string{"-p", "main", mainFile}
	got, err := tm.generate(dir, args, []string{mainFile})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	gen := filepath.Join(dir, DefaultOutput)
	if len(got) != len(args)+1 || got[len(got)-1] != gen {
		t.Fatalf("args = %v, want generated file appended", got)
	}
	if len(args) != 3 {
		t.Fatal("caller's args were modified")
	}

	// Already listed by the go command: left alone.
	got, err = tm.generate(dir, got, []string{mainFile, gen})
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if len(got) != len(args)+1 {
		t.Fatalf("generated file added twice: %v", got)
	}

	values, _ := decodeGenerated(t, gen)
	if values["greeting"] != "Hello world" {
		t.Fatalf("greeting decodes to %q", values["greeting"])
	}
}

func TestToolexecGenerateWithoutLiterals(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	mainFile := writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")

	args := []string{mainFile}
	got, err := NewToolexecManager().generate(dir, args, args)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("args = %v", got)
	}
}

func TestToolexecGenerateChecksImportcfg(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module testmod\ngo 1.22\n")
	writeFile(t, dir, "literals.go", literalFile)
	mainFile := writeFile(t, dir, "main.go", "package main\n\nfunc main() { _ = greeting() }\n")
	gen := filepath.Join(dir, DefaultOutput)

	// First build of a package that does not import obf itself.
	without := writeFile(t, dir, "cfg/without", "packagefile fmt=/cache/fmt.a\n")
	tm := NewToolexecManager()
	_, err := tm.generate(dir, []string{"-importcfg", without, mainFile}, []string{mainFile})
	if !errors.Is(err, ErrRuntimeNotImported) {
		t.Fatalf("err = %v, want %v", err, ErrRuntimeNotImported)
	}
	if values, _ := decodeGenerated(t, gen); values["greeting"] != "Hello world" {
		t.Fatal("generated file not left behind for the next build")
	}

	with := writeFile(t, dir, "cfg/with", "packagefile fmt=/cache/fmt.a\npackagefile "+RuntimeImport+"=/cache/obf.a\n")
	args := []string{"-importcfg=" + with, mainFile}
	got, err := tm.generate(dir, args, []string{mainFile})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got[len(got)-1] != gen {
		t.Fatalf("args = %v, want generated file appended", got)
	}

	if _, err := tm.generate(dir, []string{"-importcfg", filepath.Join(dir, "missing"), mainFile}, []string{mainFile}); err == nil {
		t.Fatal("expected error for unreadable importcfg")
	}
}
