package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AeonDave/svxor/internal"
)

func main() {
	if isToolexecMode() {
		toolexecManager := internal.NewToolexecManager()
		toolexecManager.RunAsToolexec()
		return
	}
	// If no arguments are provided, show help/usage instead of running codegen
	if len(os.Args) == 1 {
		showHelp()
		return
	}
	config, overrides := parseFlags()

	if config.Help {
		showHelp()
		return
	}

	if config.Version {
		fmt.Printf("svxor version %s\n", internal.Version)
		return
	}

	cfg, err := internal.LoadConfig(config.Dir, overrides)
	if err != nil {
		internal.Log.Fatalf("Error: %v", err)
	}
	internal.SetVerbose(cfg.Verbose)
	internal.Log.Debugf("running svxor in standalone mode on %s", cfg.Dir)

	if err := internal.RunCodegen(cfg); err != nil {
		internal.Log.Fatalf("Error: %v", err)
	}
}

func isToolexecMode() bool {
	if len(os.Args) < 2 {
		return false
	}
	// In toolexec mode, Go passes the tool path as an argument. Scan for the first
	// non-flag argument and accept any executable that looks like a Go tool.
	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if looksLikeGoTool(arg) {
			return true
		}
	}
	return false
}

func looksLikeGoTool(arg string) bool {
	if strings.Contains(arg, "go"+string(os.PathSeparator)+"pkg"+string(os.PathSeparator)+"tool") {
		return true
	}
	base := filepath.Base(arg)
	if strings.HasSuffix(strings.ToLower(base), ".exe") {
		base = base[:len(base)-4]
	}
	switch strings.ToLower(base) {
	case "compile", "link", "asm", "cgo", "pack", "buildid",
		"addr2line", "api", "cover", "dist", "doc", "fix", "nm",
		"objdump", "pprof", "test2json", "trace", "vet":
		return true
	default:
		return false
	}
}

// parseFlags returns the parsed flags plus the subset the user set
// explicitly, which take precedence over config file and environment.
func parseFlags() (*internal.Config, map[string]any) {
	config := &internal.Config{}
	var mode string

	flag.StringVar(&config.Dir, "dir", ".", "Directory to process")
	flag.BoolVar(&config.Verbose, "verbose", false, "Enable verbose output")
	flag.StringVar(&mode, "mode", "light", "Default mode for literals without a directive (light|heavy)")
	flag.StringVar(&config.Output, "output", internal.DefaultOutput, "Name of the generated file in each package")
	flag.BoolVar(&config.Reproducible, "reproducible", false, "Derive keys from SOURCE_DATE_EPOCH instead of the clock")
	flag.BoolVar(&config.Help, "help", false, "Show help")
	flag.BoolVar(&config.Version, "version", false, "Show version")
	flag.Parse()

	overrides := make(map[string]any)
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verbose":
			overrides["verbose"] = config.Verbose
		case "mode":
			overrides["mode"] = mode
		case "output":
			overrides["output"] = config.Output
		case "reproducible":
			overrides["reproducible"] = config.Reproducible
		}
	})
	return config, overrides
}

func showHelp() {
	const boxInnerWidth = 79

	center := func(s string, width int) string {
		r := []rune(s)
		if len(r) >= width {
			return string(r[:width])
		}
		pad := width - len(r)
		left := pad / 2
		right := pad - left
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
	}

	title := "SVXOR v" + strings.TrimPrefix(internal.Version, "v")
	header := "╔" + strings.Repeat("═", boxInnerWidth) + "╗\n" +
		"║" + center(title, boxInnerWidth) + "║\n" +
		"║" + center("Build-Time String Obfuscation for Go", boxInnerWidth) + "║\n" +
		"╚" + strings.Repeat("═", boxInnerWidth) + "╝\n"

	body := `

  Seal string literals at build time; decode them in place at run time.

INSTALL
	go install github.com/AeonDave/svxor@latest

USAGE
	Toolexec (new keys every build):   go build -a -toolexec="svxor" ./...
	Standalone:                        svxor -dir=./mypackage

QUICK START
	1. Declare the literals in a file excluded from the build (literals.go):
		//go:build exclude
		//go:svxor literals
		package main

		//svxor:heavy
		const apiHost = "api.internal.example"

	2. Use the generated accessor (main.go):
		s := apiHost()
		defer s.Destroy()
		dial(s.Text())

	3. Generate once, so the go command sees the obf import:
		svxor -dir .

	4. Build with svxor (fresh keys every build):
		go build -a -toolexec="svxor" ./...

	Result: svxor_gen.go holds only the sealed bytes of apiHost

DIRECTIVES
	//svxor:light            Precomputed keystream, single XOR pass
	//svxor:heavy            Per-byte pass with a separate key schedule
	//svxor:heavy id=0x002a  Also register the literal in svxorLookup

OPTIONS
	-dir <path>        Directory to process (default: current)
	-mode <mode>       Mode for literals without a directive (default: light)
	-output <file>     Generated file name (default: svxor_gen.go)
	-reproducible      Key from SOURCE_DATE_EPOCH, no per-build nonce
	-verbose           Enable verbose output
	-help              Show this help
	-version           Show version

ENVIRONMENT
	SVXOR_VERBOSE=1    Enable verbose output (also in toolexec mode)
	SVXOR_MODE, SVXOR_OUTPUT, SVXOR_REPRODUCIBLE   Same as the flags

CONFIG
	.svxor.yaml in the processed directory, keys: verbose, mode, output,
	reproducible

`

	// The raw string above is indented in source code; convert leading tabs into
	// spaces so the CLI output is aligned consistently across terminals.
	body = strings.NewReplacer(
		"\n\t\t", "\n    ",
		"\n\t", "\n  ",
	).Replace(body)

	fmt.Print("\n" + header + body)
}
