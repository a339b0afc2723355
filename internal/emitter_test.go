package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AeonDave/svxor/obf"
)

func TestSealPackage(t *testing.T) {
	p := &Package{
		Name: "main",
		Literals: []*Literal{
			{Name: "first", Value: "Hello world", Mode: obf.Light, Source: "a.go:3"},
			{Name: "second", Value: "Hello world", Mode: obf.Heavy, ID: 2, HasID: true, Source: "a.go:4"},
		},
	}
	build := BuildInfo{Date: "Jan  1 1970", Clock: "00:00:00"}
	sealed := SealPackage(p, build, "main.go")

	if sealed.BuildKey != 0xfced6f6495e4117f {
		t.Fatalf("BuildKey = %#x", sealed.BuildKey)
	}
	if len(sealed.Literals) != 2 || len(sealed.Table) != 1 || sealed.Table[0].Name != "second" {
		t.Fatalf("sealed = %+v", sealed)
	}
	for i, lit := range sealed.Literals {
		if lit.Salt != obf.SaltFor(uint64(i)) {
			t.Errorf("%s salt = %#x", lit.Name, lit.Salt)
		}
		s := obf.Sealed(lit.Cipher, lit.Mode, obf.InstanceKey(sealed.BuildKey, lit.Salt))
		if got := s.Text(); got != "Hello world" {
			t.Errorf("%s round trips to %q", lit.Name, got)
		}
		s.Destroy()
	}
	if bytes.Equal(sealed.Literals[0].Cipher, sealed.Literals[1].Cipher) {
		t.Fatal("equal plaintexts share a ciphertext")
	}
}

func TestRender(t *testing.T) {
	sealed := &SealedPackage{
		Package:  "demo",
		Import:   RuntimeImport,
		Version:  Version,
		BuildKey: 0x0123456789abcdef,
		Literals: []SealedLiteral{
			{Name: "token", Mode: obf.Heavy, Source: "lit.go:9", Salt: 0x10, Cipher: []byte{0xde, 0xad}},
			{Name: "none", Mode: obf.Light, Source: "lit.go:10", Salt: 0x20},
		},
	}

	src, err := Render(sealed)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := string(src)
	for _, want := range []string{
		"// Code generated by svxor " + Version + ". DO NOT EDIT.",
		"const svxorBuildKey uint64 = 0x0123456789abcdef",
		"// token returns the obfuscated literal declared at lit.go:9.",
		"return svxorobf.Sealed([]byte{0xde, 0xad}, svxorobf.Heavy, svxorBuildKey^0x0000000000000010)",
		"return svxorobf.Sealed([]byte{}, svxorobf.Light, svxorBuildKey^0x0000000000000020)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n---- got ----\n%s", want, got)
		}
	}
	if strings.Contains(got, "svxorTable") {
		t.Error("table emitted without ids")
	}

	sealed.Table = []SealedLiteral{sealed.Literals[0]}
	sealed.Table[0].ID = 0xbeef
	src, err = Render(sealed)
	if err != nil {
		t.Fatalf("Render with table: %v", err)
	}
	if !strings.Contains(string(src), "0xbeef: token,") {
		t.Errorf("table entry missing\n%s", src)
	}

	sealed.Table[0].ID = -2
	src, err = Render(sealed)
	if err != nil {
		t.Fatalf("Render with negative id: %v", err)
	}
	if !strings.Contains(string(src), "-0x0002: token,") {
		t.Errorf("negative id not rendered as a Go literal\n%s", src)
	}

	sealed.Literals[0].Mode = obf.Mode(9)
	if _, err := Render(sealed); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
