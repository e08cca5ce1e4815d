// Command labc compiles an experiment script and renders its output
// timeline, wiring the script, compiler and sink packages together.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/labc/config"
	"github.com/example/labc/diag"
	"github.com/example/labc/script"
	"github.com/example/labc/sink"
)

var version = "dev"

var (
	configPath string
	outPath    string
	compress   bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "labc [script.lua]",
	Short: "labc compiles a hardware-timed experiment script",
	Long: `labc hosts an experiment description written in Lua, runs it through
the device tree, scheduler and output materialisation, and emits the
resulting connection table, clock programs and sample arrays.`,
}

var compileCmd = &cobra.Command{
	Use:   "compile [script.lua]",
	Short: "compile a script and write its payload as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompile(args[0])
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline [script.lua] [output.png]",
	Short: "compile a script and render every output's timeline to a PNG",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTimeline(args[0], args[1])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the labc version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	compileCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (save_hg_info/save_git_info/shot overrides)")
	compileCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: stdout)")
	compileCmd.Flags().BoolVar(&compress, "gzip", false, "gzip-compress the output payload")
	compileCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "dump structural diagnostics to stderr")

	rootCmd.AddCommand(compileCmd, timelineCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func runCompile(scriptPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}

	w := os.Stdout
	var f *os.File
	if outPath != "" {
		f, err = os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
	}
	out := &sink.FileSink{Compress: compress}
	if f != nil {
		out.W = f
	} else {
		out.W = w
	}

	diagSink := diag.NewWriterSink(os.Stderr)
	diagSink.Verbose = verbose

	h := script.New(diagSink, out)
	defer h.Close()
	h.C.Ctx.Shot.TargetCycleTime = cfg.Shot.TargetCycleTime
	if cfg.Shot.CycleTimeDelayAfterProgramming != nil {
		h.C.Ctx.Shot.CycleTimeDelayAfterProgramming = *cfg.Shot.CycleTimeDelayAfterProgramming
	}

	err = h.Run(string(src))
	diagSink.Dump("compilation context", h.C.Ctx)
	return err
}

func runTimeline(scriptPath, pngPath string) error {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}

	diagSink := diag.NewWriterSink(os.Stderr)
	mem := &sink.MemorySink{}
	h := script.New(diagSink, mem)
	defer h.Close()
	if err := h.Run(string(src)); err != nil {
		return err
	}
	if mem.Last == nil {
		return fmt.Errorf("script never called stop()")
	}

	f, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return renderTimeline(mem.Last, f)
}
