package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/virtdesk/vdesk/internal/ipc"
)

func printDesktopUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vdesk desktop list")
	fmt.Fprintln(w, "  vdesk desktop new <name>")
	fmt.Fprintln(w, "  vdesk desktop switch <desktop>")
	fmt.Fprintln(w, "  vdesk desktop close <desktop>")
	fmt.Fprintln(w, "  vdesk desktop merge <from> <to>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Desktops may be referenced by name or id.")
}

func runDesktop(args []string) int {
	if len(args) == 0 {
		printDesktopUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printDesktopUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk desktop list")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "desktop list takes no arguments")
			fs.Usage()
			return 2
		}

		data, err := client.ListDesktops()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, d := range data.Desktops {
			marker := " "
			if d.Current {
				marker = "*"
			}
			fmt.Printf("%s %-20s %d windows  (%s)\n", marker, d.Name, d.WindowCount, d.ID)
		}
		return 0

	case "new":
		fs := flag.NewFlagSet("new", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk desktop new <name>")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "desktop new requires <name>")
			fs.Usage()
			return 2
		}

		info, err := client.CreateDesktop(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("created desktop %s (%s)\n", info.Name, info.ID)
		return 0

	case "switch":
		fs := flag.NewFlagSet("switch", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk desktop switch <desktop>")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "desktop switch requires <desktop>")
			fs.Usage()
			return 2
		}

		if err := client.Switch(fs.Arg(0)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "close":
		fs := flag.NewFlagSet("close", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk desktop close <desktop>")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "The current desktop cannot be closed; switch away first.")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "desktop close requires <desktop>")
			fs.Usage()
			return 2
		}

		if err := client.CloseDesktop(fs.Arg(0)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "merge":
		fs := flag.NewFlagSet("merge", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk desktop merge <from> <to>")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Move every window from one desktop into another; the source stays open, empty.")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "desktop merge requires <from> <to>")
			fs.Usage()
			return 2
		}

		if err := client.Merge(fs.Arg(0), fs.Arg(1)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown desktop command: %s\n\n", args[0])
		printDesktopUsage(os.Stderr)
		return 2
	}
}
