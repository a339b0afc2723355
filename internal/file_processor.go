package internal

import (
	"bufio"
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/AeonDave/svxor/obf"
)

type FileProcessor struct {
	ctx       *ProcessorContext
	directive *regexp.Regexp
}

func NewFileProcessor(ctx *ProcessorContext) *FileProcessor {
	return &FileProcessor{
		ctx:       ctx,
		directive: regexp.MustCompile(DirectivePattern),
	}
}

// CollectSources walks the tree once, recording literal files and manifests.
// Directories with their own go.mod are recorded as submodules and skipped.
func (fp *FileProcessor) CollectSources(dir string) error {
	fp.ctx.LiteralFiles = []string{}
	fp.ctx.Manifests = []string{}
	fp.ctx.Submodules = []string{}

	absRootDir, err := filepath.Abs(dir)
	if err != nil {
		absRootDir = dir
	}
	absRootDir = filepath.Clean(absRootDir)

	return filepath.WalkDir(absRootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if pathsEqual(path, absRootDir) {
				return nil
			}
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			if _, statErr := os.Stat(filepath.Join(path, "go.mod")); statErr == nil {
				fp.ctx.Submodules = append(fp.ctx.Submodules, path)
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case d.Name() == ManifestName:
			fp.ctx.Manifests = append(fp.ctx.Manifests, path)
		case strings.HasSuffix(path, ".go") && fp.hasLiteralMarker(path):
			fp.ctx.LiteralFiles = append(fp.ctx.LiteralFiles, path)
		}
		return nil
	})
}

// CollectDir records the literal files and manifest of a single directory,
// without descending. Used in toolexec mode where the compiler hands us one
// package at a time.
func (fp *FileProcessor) CollectDir(dir string) error {
	fp.ctx.LiteralFiles = []string{}
	fp.ctx.Manifests = []string{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch {
		case e.Name() == ManifestName:
			fp.ctx.Manifests = append(fp.ctx.Manifests, path)
		case strings.HasSuffix(e.Name(), ".go") && fp.hasLiteralMarker(path):
			fp.ctx.LiteralFiles = append(fp.ctx.LiteralFiles, path)
		}
	}
	return nil
}

func skipDir(name string) bool {
	return name == "vendor" || name == "testdata" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func (fp *FileProcessor) hasLiteralMarker(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	scanner := bufio.NewScanner(file)
	lineCount := 0

	for scanner.Scan() && lineCount < 10 {
		line := strings.TrimSpace(scanner.Text())
		if line == LiteralMarker {
			return true
		}
		lineCount++
	}
	return false
}

// LoadPackages parses every collected source and groups the literals by
// directory. Packages come back sorted by directory; literals keep file order
// (literal files by name, then the manifest), which fixes their salts.
func (fp *FileProcessor) LoadPackages() ([]*Package, error) {
	byDir := make(map[string]*Package)
	get := func(dir string) *Package {
		if p, ok := byDir[dir]; ok {
			return p
		}
		p := &Package{Dir: dir}
		byDir[dir] = p
		return p
	}

	files := append([]string(nil), fp.ctx.LiteralFiles...)
	sort.Strings(files)
	for _, path := range files {
		name, literals, err := fp.loadLiteralFile(path)
		if err != nil {
			return nil, err
		}
		if err := get(filepath.Dir(path)).add(name, path, literals); err != nil {
			return nil, err
		}
	}

	manifests := append([]string(nil), fp.ctx.Manifests...)
	sort.Strings(manifests)
	for _, path := range manifests {
		name, literals, err := loadManifest(path, fp.ctx.Config.mode())
		if err != nil {
			return nil, err
		}
		if err := get(filepath.Dir(path)).add(name, path, literals); err != nil {
			return nil, err
		}
	}

	packages := make([]*Package, 0, len(byDir))
	for _, p := range byDir {
		if err := p.validate(); err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	sort.Slice(packages, func(i, j int) bool { return packages[i].Dir < packages[j].Dir })
	return packages, nil
}

func (p *Package) add(name, source string, literals []*Literal) error {
	if p.Name != "" && p.Name != name {
		return fmt.Errorf("%w: %s declares package %s, %s declares %s",
			ErrPackageMismatch, p.Sources[0], p.Name, source, name)
	}
	p.Name = name
	p.Sources = append(p.Sources, source)
	p.Literals = append(p.Literals, literals...)
	return nil
}

func (p *Package) validate() error {
	names := make(map[string]*Literal, len(p.Literals))
	ids := make(map[int]*Literal)
	for _, lit := range p.Literals {
		if !token.IsIdentifier(lit.Name) || strings.HasPrefix(lit.Name, reservedPrefix) {
			return fmt.Errorf("%w: %q at %s", ErrInvalidName, lit.Name, lit.Source)
		}
		if prev, ok := names[lit.Name]; ok {
			return fmt.Errorf("%w: %q in %s\n  - first definition: %s\n  - second definition: %s",
				ErrDuplicateLiteral, lit.Name, p.Dir, prev.Source, lit.Source)
		}
		names[lit.Name] = lit
		if !lit.HasID {
			continue
		}
		if prev, ok := ids[lit.ID]; ok {
			return fmt.Errorf("%w: %#04x used by %q and %q in %s",
				ErrDuplicateID, lit.ID, prev.Name, lit.Name, p.Dir)
		}
		ids[lit.ID] = lit
	}
	return nil
}

func (fp *FileProcessor) loadLiteralFile(filePath string) (string, []*Literal, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read literal file: %w", err)
	}

	node, err := parser.ParseFile(fp.ctx.FileSet, filePath, src, parser.ParseComments)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse literal file: %w", err)
	}

	if !excludedFromBuild(node) {
		return "", nil, fmt.Errorf("%w: %s (add //go:build exclude)", ErrLiteralFileInBuild, fp.relPath(filePath))
	}

	var literals []*Literal
	for _, decl := range node.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || (gen.Tok != token.CONST && gen.Tok != token.VAR) {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			lits, err := fp.processValueSpec(gen, vs)
			if err != nil {
				return "", nil, err
			}
			literals = append(literals, lits...)
		}
	}
	return node.Name.Name, literals, nil
}

func (fp *FileProcessor) processValueSpec(gen *ast.GenDecl, vs *ast.ValueSpec) ([]*Literal, error) {
	doc := vs.Doc
	if doc == nil && !gen.Lparen.IsValid() {
		doc = gen.Doc
	}
	pos := fp.ctx.FileSet.Position(vs.Pos())
	where := fmt.Sprintf("%s:%d", filepath.Base(pos.Filename), pos.Line)

	mode, id, hasID, err := fp.parseDirective(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", where, err)
	}
	if len(vs.Values) == 0 {
		return nil, fmt.Errorf("%w at %s: declaration has no value", ErrUnsupportedValue, where)
	}
	if len(vs.Names) != len(vs.Values) {
		return nil, fmt.Errorf("%w at %s: %d names for %d values", ErrUnsupportedValue, where, len(vs.Names), len(vs.Values))
	}
	if hasID && len(vs.Names) > 1 {
		return nil, fmt.Errorf("%w at %s: id= applies to a single name", ErrInvalidDirective, where)
	}

	var literals []*Literal
	for i, name := range vs.Names {
		if name.Name == "_" {
			continue
		}
		value, err := stringValue(vs.Values[i])
		if err != nil {
			return nil, fmt.Errorf("%w at %s: %s: %v", ErrUnsupportedValue, where, name.Name, err)
		}
		literals = append(literals, &Literal{
			Name:   name.Name,
			Value:  value,
			Mode:   mode,
			ID:     id,
			HasID:  hasID,
			Source: where,
		})
	}
	return literals, nil
}

// parseDirective reads //svxor:<mode> [id=<n>] from a doc comment.
func (fp *FileProcessor) parseDirective(doc *ast.CommentGroup) (obf.Mode, int, bool, error) {
	mode := fp.ctx.Config.mode()
	if doc == nil {
		return mode, 0, false, nil
	}
	for _, c := range doc.List {
		m := fp.directive.FindStringSubmatch(c.Text)
		if m == nil {
			continue
		}
		parsed, err := obf.ParseMode(m[1])
		if err != nil {
			return 0, 0, false, fmt.Errorf("%w: %v", ErrInvalidDirective, err)
		}
		if m[2] == "" {
			return parsed, 0, false, nil
		}
		id, err := strconv.ParseInt(m[2], 0, 0)
		if err != nil {
			return 0, 0, false, fmt.Errorf("%w: bad id %q", ErrInvalidDirective, m[2])
		}
		return parsed, int(id), true, nil
	}
	return mode, 0, false, nil
}

// stringValue folds a string literal or a + chain of them.
func stringValue(expr ast.Expr) (string, error) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.STRING {
			return "", fmt.Errorf("%s literal is not a string", strings.ToLower(e.Kind.String()))
		}
		return strconv.Unquote(e.Value)
	case *ast.ParenExpr:
		return stringValue(e.X)
	case *ast.BinaryExpr:
		if e.Op != token.ADD {
			return "", fmt.Errorf("operator %s is not supported", e.Op)
		}
		left, err := stringValue(e.X)
		if err != nil {
			return "", err
		}
		right, err := stringValue(e.Y)
		if err != nil {
			return "", err
		}
		return left + right, nil
	default:
		return "", fmt.Errorf("expression %T is not a string literal", expr)
	}
}

// excludedFromBuild reports whether the file's //go:build line keeps it out
// of a normal build on this platform.
func excludedFromBuild(f *ast.File) bool {
	for _, group := range f.Comments {
		if group.Pos() > f.Package {
			break
		}
		for _, c := range group.List {
			if !constraint.IsGoBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				continue
			}
			return !expr.Eval(func(tag string) bool {
				return tag == runtime.GOOS || tag == runtime.GOARCH || tag == runtime.Compiler ||
					strings.HasPrefix(tag, "go1")
			})
		}
	}
	return false
}

func (fp *FileProcessor) relPath(path string) string {
	base := fp.ctx.ModuleRoot
	if base == "" {
		base = fp.ctx.RootDir
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "" {
		return path
	}
	return filepath.ToSlash(rel)
}

func pathsEqual(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func FilterUserFiles(files []string) []string {
	ctx := newFilterContext()
	var userFiles []string

	for _, file := range files {
		include, message := ctx.includeFile(file)
		if include {
			userFiles = append(userFiles, file)
		}
		if message != "" {
			logger.Debug(message)
		}
	}

	return userFiles
}

type filterContext struct {
	gopath     string
	goroot     string
	absCwd     string
	moduleRoot string
}

func newFilterContext() *filterContext {
	ctx := &filterContext{}
	ctx.gopath = determineGoPath()
	ctx.goroot = determineGoRoot()
	ctx.absCwd, ctx.moduleRoot = determineWorkspace()
	return ctx
}

func determineGoPath() string {
	gopath := os.Getenv("GOPATH")
	if gopath != "" {
		return gopath
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, "go")
}

func determineGoRoot() string {
	goroot := os.Getenv("GOROOT")
	if goroot != "" {
		return goroot
	}
	cmd := exec.Command("go", "env", "GOROOT")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

func determineWorkspace() (string, string) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	absCwd, err := filepath.Abs(cwd)
	if err != nil {
		absCwd = cwd
	}
	return absCwd, findModuleRoot(absCwd)
}

func (c *filterContext) includeFile(file string) (bool, string) {
	absFile, err := filepath.Abs(file)
	if err != nil {
		absFile = file
	}
	if shouldExcludeFile(absFile, c.goroot, c.gopath) {
		return false, fmt.Sprintf("skipping system file: %s", file)
	}
	if isVendorPath(file) {
		return false, fmt.Sprintf("skipping vendor file: %s", file)
	}
	if isLocalPath(file) {
		return true, fmt.Sprintf("including local file: %s", file)
	}
	if isUserFile(absFile, c.absCwd, c.moduleRoot) {
		return true, fmt.Sprintf("including user file: %s", file)
	}
	return false, fmt.Sprintf("skipping non-user file: %s", file)
}

func isVendorPath(path string) bool {
	if strings.Contains(path, "/vendor/") || strings.Contains(path, "\\vendor\\") {
		return true
	}
	return strings.HasPrefix(path, "vendor/") || strings.HasPrefix(path, "vendor\\")
}

func isLocalPath(path string) bool {
	return strings.HasPrefix(path, "./") || filepath.Base(path) == path
}

func findModuleRoot(dir string) string {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func shouldExcludeFile(absFile, goroot, gopath string) bool {
	if goroot != "" && strings.HasPrefix(absFile, goroot) {
		return true
	}
	if gopath != "" && strings.Contains(absFile, filepath.Join(gopath, "pkg", "mod")) {
		return true
	}
	for _, path := range GoInstallPaths {
		if strings.Contains(absFile, path) {
			return true
		}
	}
	for _, path := range SystemPaths {
		if strings.Contains(absFile, path) {
			return true
		}
	}
	return false
}

func isUserFile(absFile, absCwd, moduleRoot string) bool {
	if strings.HasPrefix(absFile, absCwd) {
		return true
	}
	if moduleRoot != "" && strings.HasPrefix(absFile, moduleRoot) {
		return true
	}
	return !filepath.IsAbs(absFile)
}

func FindCommonDir(files []string) string {
	if len(files) == 0 {
		return ""
	}

	commonDir := filepath.Dir(files[0])
	for _, file := range files[1:] {
		dir := filepath.Dir(file)
		for !strings.HasPrefix(dir, commonDir) && commonDir != "." && commonDir != "/" {
			commonDir = filepath.Dir(commonDir)
		}
	}
	return commonDir
}
