package internal

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/AeonDave/svxor/obf"
)

var generatedTemplate = template.Must(template.New("svxor").Funcs(template.FuncMap{
	"hex64":    func(v uint64) string { return fmt.Sprintf("0x%016x", v) },
	"hex16":    hex16,
	"bytes":    byteList,
	"modeName": modeName,
}).Parse(GeneratedTemplate))

// SealPackage encodes every literal of p under the build key for source.
// Salts follow declaration order, starting at zero.
func SealPackage(p *Package, build BuildInfo, source string) *SealedPackage {
	sealed := &SealedPackage{
		Package:  p.Name,
		Import:   RuntimeImport,
		Version:  Version,
		BuildKey: build.Key(source),
	}
	for i, lit := range p.Literals {
		salt := obf.SaltFor(uint64(i))
		sl := SealedLiteral{
			Name:   lit.Name,
			Mode:   lit.Mode,
			ID:     lit.ID,
			HasID:  lit.HasID,
			Source: lit.Source,
			Salt:   salt,
			Cipher: obf.Seal(lit.Value, lit.Mode, obf.InstanceKey(sealed.BuildKey, salt)),
		}
		sealed.Literals = append(sealed.Literals, sl)
		if sl.HasID {
			sealed.Table = append(sealed.Table, sl)
		}
	}
	return sealed
}

// Render produces the gofmt'ed source of the generated file.
func Render(p *SealedPackage) ([]byte, error) {
	var buf bytes.Buffer
	if err := generatedTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", p.Package, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generated code for %s does not format: %w", p.Package, err)
	}
	return src, nil
}

func hex16(v int) string {
	if v < 0 {
		return fmt.Sprintf("-0x%04x", -v)
	}
	return fmt.Sprintf("0x%04x", v)
}

func byteList(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02x", c)
	}
	return sb.String()
}

func modeName(m obf.Mode) (string, error) {
	switch m {
	case obf.Light:
		return "Light", nil
	case obf.Heavy:
		return "Heavy", nil
	default:
		return "", fmt.Errorf("unknown mode %v", m)
	}
}
