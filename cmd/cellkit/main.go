package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// commands is a register of all available commands that can be executed by
// this program. The name is used to match with the first argument given.
//
// A command function is given stdin, stdout and the command line arguments
// without the program name and the command name. It is the responsibility of
// the command function to parse the arguments. Logs and error messages go to
// os.Stderr.
//
// Keep commands small. Multisig deployments are done in steps that can be
// run by different people on different machines:
//
//   $ cellkit deploy -spec deployment.toml -export sessions/
//   $ cellkit multisig-sign -session sessions/0x....toml -key alice.key -append
//   $ cellkit multisig-sign -session sessions/0x....toml -key bob.key -append
//   $ cellkit deploy -spec deployment.toml -sessions sessions/
//
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"deploy":             cmdDeploy,
	"keyaddr":            cmdKeyaddr,
	"keygen":             cmdKeygen,
	"multisig-aggregate": cmdMultisigAggregate,
	"multisig-message":   cmdMultisigMessage,
	"multisig-sign":      cmdMultisigSign,
	"multisig-template":  cmdMultisigTemplate,
	"send-tx":            cmdSendTx,
	"version":            cmdVersion,
	"view":               cmdView,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s deploys scripts and their dep groups.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	// Skip two first arguments. Second argument is the command name that
	// we just consumed.
	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	fmt.Fprintln(out, gitHash)
	return nil
}

// gitHash is set during the compilation time.
var gitHash string = "dev"
