package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/virtdesk/vdesk/internal/ipc"
)

func printWindowUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vdesk window list [--desktop D]")
	fmt.Fprintln(w, "  vdesk window cut <window-id>")
	fmt.Fprintln(w, "  vdesk window paste [--desktop D]")
	fmt.Fprintln(w, "  vdesk window clipboard")
}

func runWindow(args []string) int {
	if len(args) == 0 {
		printWindowUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printWindowUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk window list [--desktop D]")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		desktop := fs.String("desktop", "", "Desktop name or id (default: current)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "window list takes no arguments")
			fs.Usage()
			return 2
		}

		data, err := client.ListWindows(*desktop)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		printWindows(data.Windows)
		return 0

	case "cut":
		fs := flag.NewFlagSet("cut", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk window cut <window-id>")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Move a window (and its tool windows) onto the clipboard.")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "window cut requires <window-id>")
			fs.Usage()
			return 2
		}

		id, err := strconv.ParseUint(fs.Arg(0), 0, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid window id %q\n", fs.Arg(0))
			return 2
		}
		if err := client.Cut(uint32(id)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "paste":
		fs := flag.NewFlagSet("paste", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk window paste [--desktop D]")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Paste all clipboard windows onto a desktop. The clipboard is kept,")
			fmt.Fprintln(os.Stderr, "so the same windows can be pasted onto further desktops.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		desktop := fs.String("desktop", "", "Desktop name or id (default: current)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "window paste takes no arguments")
			fs.Usage()
			return 2
		}

		if err := client.Paste(*desktop); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "clipboard":
		fs := flag.NewFlagSet("clipboard", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk window clipboard")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "window clipboard takes no arguments")
			fs.Usage()
			return 2
		}

		data, err := client.ListClipboard()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		printWindows(data.Windows)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown window command: %s\n\n", args[0])
		printWindowUsage(os.Stderr)
		return 2
	}
}

func printWindows(windows []ipc.WindowInfo) {
	for _, w := range windows {
		vis := "hidden"
		if w.Visible {
			vis = "visible"
		}
		fmt.Printf("0x%08x  pid=%-7d %-8s %-20s %s\n", w.ID, w.PID, vis, w.Class, w.Title)
	}
}
