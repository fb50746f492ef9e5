package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"nescore/emu"
	"nescore/emu/log"
)

type mode byte

const (
	runMode      mode = iota // Run a ROM headless
	romInfosMode             // Show ROM infos
	nsfInfoMode              // Show NSF header
	disasmMode               // Disassemble executed code
	versionMode              // Show version
)

type (
	CLI struct {
		Run      Run      `cmd:"" help:"Run ROM in emulator, without video or audio output."`
		RomInfos RomInfos `cmd:"" help:"Show ROM infos." name:"rom-infos"`
		NSFInfo  NSFInfo  `cmd:"" help:"Show NSF file header." name:"nsf-info"`
		Disasm   Disasm   `cmd:"" help:"${disasm_help}"`
		Version  Version  `cmd:"" help:"Show nescore version."`

		Log       logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		LogFormat string     `name:"log-format" help:"Log output format (text|json)."`
		Config    string     `name:"config" help:"Configuration file (default: ${config_path})." type:"path"`

		mode mode
	}

	Run struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"ROM to run." type:"existingfile"`

		Frames     int      `name:"frames" help:"Number of frames to run (default from config)."`
		Trace      *outfile `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
		Screenshot string   `name:"screenshot" help:"Save the last frame as a PNG image." type:"path" placeholder:"out.png"`
		Profile    string   `name:"profile" help:"${profile_help}" placeholder:"cpu|mem"`
	}

	RomInfos struct {
		RomPaths []string `arg:"" name:"/path/to/rom" type:"existingfile"`
	}

	NSFInfo struct {
		Path string `arg:"" name:"/path/to/nsf" type:"existingfile"`
	}

	Disasm struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
		Frames  int    `name:"frames" help:"Number of frames to run before listing." default:"60"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"disasm_help":  "Run ROM and list the instructions it executed.",
	"profile_help": "Profile the emulation (cpu|mem), written to the current directory.",
	"log_help":     "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI

	cfgPath, err := emu.ConfigPath()
	if err != nil {
		cfgPath = "none"
	}
	vars["config_path"] = cfgPath

	parser, err := kong.New(&cfg,
		kong.Name("nescore"),
		kong.Description("NES emulation core."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")

	// Positional arguments follow the command name.
	switch strings.Fields(ctx.Command())[0] {
	case "rom-infos":
		cfg.mode = romInfosMode
	case "nsf-info":
		cfg.mode = nsfInfoMode
	case "disasm":
		cfg.mode = disasmMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

// logModMask is the set of modules given with --log.
type logModMask struct {
	mask    log.ModuleMask
	set     bool
	disable bool // --log=no
}

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm *logModMask) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	list, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected a list of log modules, got %v", tok.Value)
	}

	mods := strings.Split(list, ",")
	for _, m := range mods {
		if (m == "all" || m == "no") && len(mods) > 1 {
			return fmt.Errorf("cannot combine '%s' with other log modules", m)
		}
	}

	mask, err := log.ParseModules(list)
	if err != nil {
		return err
	}
	lm.mask = mask
	lm.set = true
	lm.disable = list == "no"
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	name, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected a file name, got %v", tok.Value)
	}
	return f.open(name)
}

func (f *outfile) open(name string) error {
	f.name = name
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
