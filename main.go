/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/lantern/engine"
	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/testbed"

	// Import backends to register them
	_ "github.com/spaghettifunk/lantern/engine/renderer/headless"
	_ "github.com/spaghettifunk/lantern/engine/renderer/vulkan"
	_ "github.com/spaghettifunk/lantern/engine/renderer/webgpu"
)

var (
	flagConfig      string
	flagVulkan      bool
	flagWebGPU      bool
	flagHeadless    bool
	flagDebugDevice bool
	flagFrames      uint64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "lantern",
	Short:   "Lantern testbed",
	Version: engine.Version,
	Long: `Runs the Lantern testbed: a title screen and a level switched with a
fade by the startup script.

Keys:
  ESC        quit
  HOME       toggle the log console (PAGE UP/DOWN scroll)
  F1         toggle the profiler
  F2         save a screenshot`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "Path to a TOML config file, watched for changes")
	rootCmd.Flags().BoolVar(&flagVulkan, "vulkan", false, "Use the Vulkan backend")
	rootCmd.Flags().BoolVar(&flagWebGPU, "webgpu", false, "Use the WebGPU backend")
	rootCmd.Flags().BoolVar(&flagHeadless, "headless", false, "Render without a window")
	rootCmd.Flags().BoolVar(&flagDebugDevice, "debugdevice", false, "Enable graphics validation")
	rootCmd.Flags().Uint64Var(&flagFrames, "frames", 0, "Quit after this many frames (0 = run until closed)")
	rootCmd.MarkFlagsMutuallyExclusive("vulkan", "webgpu", "headless")
}

func startupArguments() *core.StartupArguments {
	args := core.NewStartupArguments()
	for name, set := range map[string]bool{
		"vulkan":      flagVulkan,
		"webgpu":      flagWebGPU,
		"headless":    flagHeadless,
		"debugdevice": flagDebugDevice,
	} {
		if set {
			args.Set(name)
		}
	}
	return args
}

func run(cmd *cobra.Command, _ []string) error {
	tb := testbed.NewTestGame()

	e, err := engine.New(tb.Game, engine.Options{
		ConfigPath: flagConfig,
		Args:       startupArguments(),
		MaxFrames:  flagFrames,
	})
	if err != nil {
		return err
	}

	if err := e.Initialize(); err != nil {
		core.LogError("failed to initialize the engine: %s", err)
		_ = e.Shutdown()
		return err
	}

	// capture sigterm and other system call here
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	return runErr
}
