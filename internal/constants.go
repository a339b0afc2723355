package internal

const (
	Version = "1.0.0"
	// LiteralMarker tags a Go file whose string declarations get obfuscated.
	LiteralMarker    = "//go:svxor literals"
	DirectivePattern = `^//\s*svxor:(\w+)(?:\s+id=(\S+))?\s*$`
	DefaultOutput    = "svxor_gen.go"
	ManifestName     = "svxor.yaml"
	ConfigName       = ".svxor"
	RuntimeImport    = "github.com/AeonDave/svxor/obf"
	// reserved for generated identifiers
	reservedPrefix = "svxor"

	GeneratedTemplate = `// Code generated by svxor {{.Version}}. DO NOT EDIT.

package {{.Package}}

import svxorobf "{{.Import}}"

const svxorBuildKey uint64 = {{hex64 .BuildKey}}
{{range .Literals}}
// {{.Name}} returns the obfuscated literal declared at {{.Source}}.
func {{.Name}}() *svxorobf.String {
	return svxorobf.Sealed([]byte{ {{- bytes .Cipher -}} }, svxorobf.{{modeName .Mode}}, svxorBuildKey^{{hex64 .Salt}})
}
{{end}}
{{- if .Table}}
var svxorTable = svxorobf.NewTable(map[int]func() *svxorobf.String{
{{- range .Table}}
	{{hex16 .ID}}: {{.Name}},
{{- end}}
})

// svxorLookup returns a fresh copy of the literal registered under id, or nil.
func svxorLookup(id int) *svxorobf.String {
	return svxorTable.Lookup(id)
}
{{- end}}
`
)

var (
	GoInstallPaths = []string{
		"/usr/lib/go",
		"/usr/local/go",
		"/opt/go",
		"\\Go\\", // Windows
	}
	SystemPaths = []string{
		"/runtime/",
		"/vendor/",
		"/pkg/mod/",
	}
)
