package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/virtdesk/vdesk/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: vdesk daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: vdesk daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "desktop":
		os.Exit(runDesktop(os.Args[2:]))
	case "window":
		os.Exit(runWindow(os.Args[2:]))
	case "session":
		os.Exit(runSession(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vdesk <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the vdesk daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  desktop list        List virtual desktops")
	fmt.Fprintln(w, "  desktop new         Create a new desktop")
	fmt.Fprintln(w, "  desktop switch      Switch to a desktop")
	fmt.Fprintln(w, "  desktop close       Close a desktop")
	fmt.Fprintln(w, "  desktop merge       Merge one desktop into another")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  window list         List windows on a desktop")
	fmt.Fprintln(w, "  window cut          Cut a window onto the clipboard")
	fmt.Fprintln(w, "  window paste        Paste the clipboard onto a desktop")
	fmt.Fprintln(w, "  window clipboard    List windows on the clipboard")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  session suspend     Suspend current desktop's apps to a named session")
	fmt.Fprintln(w, "  session resume      Resume a named session")
	fmt.Fprintln(w, "  session list        List saved sessions")
	fmt.Fprintln(w, "  session delete      Delete a saved session")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'vdesk <command> --help' for command-specific options.")
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vdesk status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running:  %v\n", status.DaemonRunning)
	fmt.Printf("current_desktop: %s\n", status.CurrentDesktop)
	fmt.Printf("desktop_count:   %d\n", status.DesktopCount)
	fmt.Printf("window_count:    %d\n", status.WindowCount)
	fmt.Printf("uptime_seconds:  %d\n", status.UptimeSeconds)
	return 0
}
