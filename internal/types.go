package internal

import (
	"errors"
	"go/token"

	"github.com/AeonDave/svxor/obf"
)

var (
	ErrDuplicateLiteral = errors.New("duplicate literal")
	ErrDuplicateID      = errors.New("duplicate table id")
	ErrInvalidName      = errors.New("invalid literal name")
	ErrInvalidDirective = errors.New("invalid svxor directive")
	ErrUnsupportedValue = errors.New("unsupported literal value")
	ErrPackageMismatch  = errors.New("package name mismatch")

	// A literal file compiled next to its generated accessors redeclares
	// every name.
	ErrLiteralFileInBuild = errors.New("literal file is not excluded from the build")
	// The go command resolved imports before the generated file existed.
	ErrRuntimeNotImported = errors.New("generated file imports a package the go command did not resolve")
)

// Literal is one string declaration waiting to be sealed.
type Literal struct {
	Name   string
	Value  string
	Mode   obf.Mode
	ID     int
	HasID  bool
	Source string // file:line, relative to the package directory
}

// Package groups the literals declared in one directory.
type Package struct {
	Dir      string
	Name     string
	Sources  []string
	Literals []*Literal
}

// SealedLiteral is a Literal after build-time encoding. It no longer carries
// the plaintext.
type SealedLiteral struct {
	Name   string
	Mode   obf.Mode
	ID     int
	HasID  bool
	Source string
	Salt   uint64
	Cipher []byte
}

type SealedPackage struct {
	Package  string
	Import   string
	Version  string
	BuildKey uint64
	Literals []SealedLiteral
	Table    []SealedLiteral
}

// ProcessorContext carries the state of one codegen run.
type ProcessorContext struct {
	RootDir      string
	ModuleRoot   string
	Config       *Config
	Build        BuildInfo
	FileSet      *token.FileSet
	LiteralFiles []string
	Manifests    []string
	Submodules   []string
}

// Config holds the application configuration.
type Config struct {
	Dir          string
	Verbose      bool
	Help         bool
	Version      bool
	Mode         obf.Mode
	Output       string
	Reproducible bool
}

func (c *Config) output() string {
	if c == nil || c.Output == "" {
		return DefaultOutput
	}
	return c.Output
}

func (c *Config) mode() obf.Mode {
	if c == nil {
		return obf.Light
	}
	return c.Mode
}
