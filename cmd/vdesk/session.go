package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/virtdesk/vdesk/internal/ipc"
	"github.com/virtdesk/vdesk/internal/session"
)

func printSessionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vdesk session suspend <name>")
	fmt.Fprintln(w, "  vdesk session resume <name>")
	fmt.Fprintln(w, "  vdesk session list")
	fmt.Fprintln(w, "  vdesk session delete <name>")
}

func runSession(args []string) int {
	if len(args) == 0 {
		printSessionUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printSessionUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "suspend":
		fs := flag.NewFlagSet("suspend", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk session suspend <name>")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Capture the current desktop's matched applications into a named session.")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "session suspend requires <name>")
			fs.Usage()
			return 2
		}

		data, err := ipc.NewClient().Suspend(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("suspended %d application(s) into session %q\n", data.Applications, data.Name)
		return 0

	case "resume":
		fs := flag.NewFlagSet("resume", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk session resume <name>")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "session resume requires <name>")
			fs.Usage()
			return 2
		}

		data, err := ipc.NewClient().Resume(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("resumed %d application(s) from session %q\n", data.Applications, data.Name)
		return 0

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk session list")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "session list takes no arguments")
			fs.Usage()
			return 2
		}

		store, err := session.DefaultStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		names, err := store.List()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return 0

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: vdesk session delete <name>")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "session delete requires <name>")
			fs.Usage()
			return 2
		}

		store, err := session.DefaultStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := store.Delete(fs.Arg(0)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown session command: %s\n\n", args[0])
		printSessionUsage(os.Stderr)
		return 2
	}
}
