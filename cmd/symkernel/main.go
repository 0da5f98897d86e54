// Command symkernel is the interactive front end to the symbolic kernel:
// a line-oriented REPL plus one-shot evaluation modes for scripts and -e
// expressions. The kernel itself is the library; everything here is
// terminal plumbing.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"

	"symkernel/internal/kernel"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var exprText string
	var files []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-e", "--eval":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "symkernel: -e requires an expression")
				return 2
			}
			i++
			exprText = args[i]
		case "-h", "--help":
			showUsage()
			return 0
		case "-v", "--version":
			fmt.Println("symkernel " + version)
			return 0
		default:
			if strings.HasPrefix(args[i], "-") {
				fmt.Fprintf(os.Stderr, "symkernel: unknown flag %s\n", args[i])
				showUsage()
				return 2
			}
			files = append(files, args[i])
		}
	}

	k := kernel.New(kernel.Options{})

	if exprText != "" {
		return evalAndPrint(k, exprText)
	}
	if len(files) > 0 {
		for _, f := range files {
			if code := runFile(k, f); code != 0 {
				return code
			}
		}
		return 0
	}
	return repl(k)
}

func showUsage() {
	fmt.Println(`symkernel - symbolic computation kernel

Usage:
  symkernel              start the interactive REPL
  symkernel -e <expr>    evaluate one expression and print the result
  symkernel <file>...    evaluate each non-empty line of the given files
  symkernel -v           print the version`)
}

func evalAndPrint(k *kernel.Kernel, text string) int {
	out, err := k.EvaluateString(text)
	if err != nil {
		fmt.Fprintln(os.Stderr, "symkernel:", err)
		return 1
	}
	printed := k.Format(out)
	if printed != "Null" {
		fmt.Println(printed)
	}
	return 0
}

func runFile(k *kernel.Kernel, path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "symkernel:", err)
		return 1
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if code := evalAndPrint(k, line); code != 0 {
			return code
		}
	}
	return 0
}

func repl(k *kernel.Kernel) int {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Printf("symkernel %s | type 'exit' to quit\n", version)
	}

	// Ctrl-C interrupts the running evaluation rather than killing the
	// session: every interrupt is forwarded to the kernel, and the session
	// ends only at end of input or on an exit command below.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	go func() {
		for range interrupts {
			k.Interrupt()
		}
	}()
	defer signal.Stop(interrupts)

	scanner := bufio.NewScanner(os.Stdin)
	n := 1
	for {
		if interactive {
			fmt.Printf("In[%d]:= ", n)
		}
		if !scanner.Scan() {
			if interactive {
				fmt.Println()
			}
			return 0
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "Quit" || line == "Quit[]" {
			return 0
		}
		out, err := k.EvaluateString(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			n++
			continue
		}
		printed := k.Format(out)
		if printed != "Null" {
			if interactive {
				fmt.Printf("Out[%d]= %s\n", n, printed)
			} else {
				fmt.Println(printed)
			}
		}
		n++
	}
}
