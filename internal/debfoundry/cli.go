package debfoundry

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
)

// printHelp prints the commands table
func printHelp() {
	colSuccess.Println("Usage: debfoundry <command> [arguments]")
	colSuccess.Println("Run 'debfoundry <command> -h' for command options")
	fmt.Println()
	color.Info.Println("Available Commands:")

	type cmdInfo struct {
		Cmd  string
		Args string
		Desc string
	}
	cmds := []cmdInfo{
		{"build, b", "[-a] [-p <pkg>]", "Build stale packages and refresh the repository index"},
		{"list, ls", "[query]", "List buildable packages, optionally filter by name"},
		{"status", "", "TUI package/artifact overview with build logs"},
		{"publish", "[--cleanup]", "Sync artifacts and index to the configured mirror"},
		{"version, --version", "", "Version information"},
	}

	maxLen := 0
	for _, c := range cmds {
		length := len(c.Cmd) + len(c.Args)
		if c.Args != "" {
			length++
		}
		if length > maxLen {
			maxLen = length
		}
	}
	columnWidth := maxLen + 4

	for _, c := range cmds {
		var usageString string
		if c.Args != "" {
			usageString = fmt.Sprintf("  %s %s", c.Cmd, c.Args)
		} else {
			usageString = fmt.Sprintf("  %s", c.Cmd)
		}

		fmt.Print("  ")
		color.Bold.Print(c.Cmd)
		if c.Args != "" {
			fmt.Print(" ")
			color.Cyan.Print(c.Args)
		}

		pad := columnWidth - len(usageString)
		if pad < 1 {
			pad = 1
		}
		fmt.Print(strings.Repeat(" ", pad))
		color.Info.Println(c.Desc)
	}
	fmt.Println()
}

// Main is the CLI entrypoint for cmd/debfoundry.
func Main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case sig := <-sigs:
				colArrow.Print("\n-> ")
				color.Danger.Printf("Received %v. Cancelling process gracefully\n", sig)
				cancel()

				// Give the running tool a moment to die and flush its buffers.
				time.Sleep(100 * time.Millisecond)

				select {
				case <-sigs:
					colArrow.Print("\n-> ")
					color.Danger.Printf("Second interrupt received. Forcing immediate exit.")
					os.Exit(130)
				case <-time.After(2 * time.Second):
					colArrow.Print("\n-> ")
					color.Danger.Printf("Graceful shutdown timeout. Exiting.")
					os.Exit(0)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if ctx.Err() != nil {
		return
	}

	if len(os.Args) < 2 {
		printHelp()
		return
	}

	configPath := ConfigFile
	if root := os.Getenv("DEBFOUNDRY_ROOT"); root != "" {
		configPath = filepath.Join(root, "etc", "debfoundry.conf")
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		colError.Printf("Error reading config %s: %v\n", configPath, err)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "version", "--version", "-v":
		fmt.Printf("debfoundry %s (%s, built %s)\n", version, runtime.GOARCH, buildDate)
		return
	case "help", "--help", "-h":
		printHelp()
		return
	}

	st, err := resolveSettings(cfg)
	if err != nil {
		colError.Printf("Critical error: %v\n", err)
		os.Exit(1)
	}

	if err := dispatch(ctx, command, args, st); err != nil {
		colArrow.Print("-> ")
		colError.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, command string, args []string, st *Settings) error {
	execCtx := NewExecutor(ctx)
	out := NewOutput()

	switch command {
	case "build", "b":
		return handleBuildCommand(args, st, out, execCtx)

	case "list", "ls":
		searchTerm := ""
		if len(args) > 0 {
			searchTerm = args[0]
		}
		return listPackages(st, NewStalenessOracle(st, out, execCtx), searchTerm)

	case "status":
		return runStatusTUI(st, NewStalenessOracle(st, out, execCtx))

	case "publish":
		publishCmd := flag.NewFlagSet("publish", flag.ExitOnError)
		var cleanup = publishCmd.Bool("cleanup", false, "Delete mirror artifacts no longer present locally.")
		if err := publishCmd.Parse(args); err != nil {
			return fmt.Errorf("error parsing publish flags: %v", err)
		}
		return handlePublishCommand(ctx, st, out, *cleanup)

	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// handleBuildCommand implements the 'debfoundry build' command.
func handleBuildCommand(args []string, st *Settings, out *Output, execCtx *Executor) error {
	buildCmd := flag.NewFlagSet("build", flag.ExitOnError)
	var all = buildCmd.Bool("a", false, "Forcibly build all packages (overrides file-update check)")
	var allLong = buildCmd.Bool("all", false, "Forcibly build all packages (overrides file-update check)")
	var pkg = buildCmd.String("p", "", "Package name to build")
	var pkgLong = buildCmd.String("package", "", "Package name to build")

	if err := buildCmd.Parse(args); err != nil {
		return fmt.Errorf("error parsing build flags: %v", err)
	}

	sel := Selection{All: *all || *allLong}
	if !sel.All {
		sel.Package = *pkg
		if sel.Package == "" {
			sel.Package = *pkgLong
		}
	}

	if err := os.MkdirAll(st.OutputDir, 0o755); err != nil {
		return err
	}
	release, err := acquireRunLock(st.OutputDir)
	if err != nil {
		return err
	}
	defer release()

	report, err := NewOrchestrator(st, out, execCtx).Run(sel)
	if err != nil {
		return err
	}
	if len(report.Built) > 0 {
		out.Put("Built %d package(s): %s", len(report.Built), strings.Join(report.Built, ", "))
	}
	return nil
}
