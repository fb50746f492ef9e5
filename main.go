package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime/debug"
	"strings"

	"nescore/emu"
	"nescore/emu/log"
)

func main() {
	cli := parseArgs(os.Args[1:])
	if cli.mode == versionMode {
		fmt.Println("nescore", version())
		return
	}

	cfg := loadConfig(cli.Config)
	setupLogging(cli, cfg.Log)

	switch cli.mode {
	case runMode:
		runROM(cli.Run, cfg)
	case romInfosMode:
		checkf(printRomInfos(os.Stdout, cli.RomInfos.RomPaths), "failed to read roms")
	case nsfInfoMode:
		checkf(printNSFInfo(os.Stdout, cli.NSFInfo.Path), "failed to read nsf")
	case disasmMode:
		checkf(disasmROM(os.Stdout, cli.Disasm, cfg), "failed to disassemble rom")
	}
}

// loadConfig reads the configuration file given with --config, or the one in
// the user config directory.
func loadConfig(path string) emu.Config {
	if path == "" {
		return emu.LoadConfigOrDefault()
	}
	cfg, err := emu.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.ModEmu.InfoZ("config file not found, using defaults").String("path", path).End()
		return cfg
	}
	checkf(err, "failed to load configuration %s", path)
	return cfg
}

// setupLogging applies the log configuration, command line flags take
// precedence over the configuration file.
func setupLogging(cli CLI, cfg emu.LogConfig) {
	format := cfg.Format
	if cli.LogFormat != "" {
		format = cli.LogFormat
	}
	checkf(log.SetFormat(format), "invalid log format")

	if cli.Log.set {
		if cli.Log.disable {
			log.Disable()
			return
		}
		log.EnableDebugModules(cli.Log.mask)
		return
	}

	mask, err := log.ParseModules(strings.Join(cfg.Modules, ","))
	checkf(err, "invalid log modules in configuration")
	log.EnableDebugModules(mask)
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(devel)"
	}
	return info.Main.Version
}
