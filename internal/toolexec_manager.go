package internal

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type ToolexecManager struct{}

var versionShown = false

func NewToolexecManager() *ToolexecManager {
	return &ToolexecManager{}
}

// RunAsToolexec runs svxor as a -toolexec wrapper. Only the compiler is
// intercepted: the package being compiled is regenerated and the generated
// file is added to the compiler's inputs.
func (tm *ToolexecManager) RunAsToolexec() {
	if len(os.Args) < 2 {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s <original-tool> [args...]\n", os.Args[0])
		os.Exit(1)
	}
	originalTool := os.Args[1]
	originalArgs := os.Args[2:]
	if !tm.isCompilerTool(originalTool) {
		tm.runOriginalTool(originalTool, originalArgs)
		return
	}

	goFiles := tm.extractGoFiles(originalArgs)
	if len(goFiles) > 0 && !tm.isExternalTestPackage(originalArgs, goFiles) {
		userFiles := FilterUserFiles(goFiles)
		if len(userFiles) > 0 {
			if !versionShown {
				logger.Debugf("svxor %s obfuscating string literals", Version)
				versionShown = true
			}
			workDir := tm.determineWorkDir(userFiles)
			args, err := tm.generate(workDir, originalArgs, goFiles)
			if err != nil {
				logger.WithError(err).WithField("dir", workDir).Error("code generation failed")
				os.Exit(1)
			}
			originalArgs = args
		}
	}
	tm.runOriginalTool(originalTool, originalArgs)
}

func (tm *ToolexecManager) isCompilerTool(tool string) bool {
	base := filepath.Base(tool)
	return base == "compile" || base == "compile.exe"
}

func (tm *ToolexecManager) extractGoFiles(args []string) []string {
	var goFiles []string
	for _, arg := range args {
		if strings.HasSuffix(arg, ".go") && !strings.HasPrefix(arg, "-") {
			goFiles = append(goFiles, arg)
		}
	}
	return goFiles
}

// isExternalTestPackage spots the x_test package of `go test`, which must
// not receive the generated file of package x.
func (tm *ToolexecManager) isExternalTestPackage(args, goFiles []string) bool {
	for i, arg := range args {
		if arg == "-p" && i+1 < len(args) && strings.HasSuffix(args[i+1], "_test") {
			return true
		}
	}
	for _, f := range goFiles {
		if !strings.HasSuffix(f, "_test.go") {
			return false
		}
	}
	return true
}

func (tm *ToolexecManager) determineWorkDir(userFiles []string) string {
	workDir := FindCommonDir(userFiles)
	if workDir == "" {
		workDir = "."
	}
	return workDir
}

// generate regenerates the package in dir and returns the compiler
// arguments, extended with the generated file when it was not there yet.
func (tm *ToolexecManager) generate(dir string, args, goFiles []string) ([]string, error) {
	cfg, err := LoadConfig(dir, nil)
	if err != nil {
		return nil, err
	}
	SetVerbose(cfg.Verbose)

	out, err := GeneratePackage(dir, cfg)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return args, nil
	}
	if tm.containsFile(goFiles, out) {
		return args, nil
	}
	ok, err := tm.importcfgHas(args, RuntimeImport)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s was created during this build; run the build again, or run `svxor -dir %s` before the first build",
			ErrRuntimeNotImported, out, dir)
	}
	logger.WithField("file", out).Debug("adding generated file to compiler inputs")
	return append(append([]string(nil), args...), out), nil
}

// importcfgHas reports whether the compiler's -importcfg lists importPath.
// Without an -importcfg argument there is nothing to check against.
func (tm *ToolexecManager) importcfgHas(args []string, importPath string) (bool, error) {
	var cfgPath string
	for i, arg := range args {
		if arg == "-importcfg" && i+1 < len(args) {
			cfgPath = args[i+1]
			break
		}
		if v, found := strings.CutPrefix(arg, "-importcfg="); found {
			cfgPath = v
			break
		}
	}
	if cfgPath == "" {
		return true, nil
	}

	content, err := os.ReadFile(cfgPath)
	if err != nil {
		return false, fmt.Errorf("failed to read importcfg: %w", err)
	}
	prefix := "packagefile " + importPath + "="
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			return true, nil
		}
	}
	return false, nil
}

func (tm *ToolexecManager) containsFile(files []string, target string) bool {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		absTarget = target
	}
	for _, f := range files {
		absFile, err := filepath.Abs(f)
		if err != nil {
			absFile = f
		}
		if pathsEqual(filepath.Clean(absFile), filepath.Clean(absTarget)) {
			return true
		}
	}
	return false
}

func (tm *ToolexecManager) runOriginalTool(tool string, args []string) {
	cmd := exec.Command(tool, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			os.Exit(exitError.ExitCode())
		}
		os.Exit(1)
	}
}
