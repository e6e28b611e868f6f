// Command redisc-cli is a small command-line client for exercising a
// redisc-managed cluster: it starts a cluster from a list of seed
// addresses and runs a single command against it, or computes the hash
// slot of a key without touching the network.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mna/mainer"

	"github.com/mna/redisc"
)

const binName = "redisc-cli"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<arg>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<arg>...]
       %[1]s -h|--help

Interact with a Redis cluster via the redisc package.

Valid flag options are:
       -h --help                 Show this help and exit immediately.
       -a --addrs ADDRS          Comma-separated list of seed addresses to
                                 connect to the cluster.
       --hash KEY                Compute and print the hash slot of KEY and
                                 exit immediately, without connecting.

The <command> is the redis command to execute, with the provided <arg>s.
`, binName)
)

type cmd struct {
	Help bool `flag:"h,help"`

	Addrs string `flag:"a,addrs"`
	Hash  string `flag:"hash"`

	args []string
}

func (c *cmd) SetArgs(args []string) {
	c.args = args
}

func (c *cmd) Validate() error {
	if c.Help || c.Hash != "" {
		return nil
	}

	if c.Addrs == "" {
		return errors.New("--addrs is required")
	}
	if len(c.args) == 0 {
		return errors.New("no redis command provided")
	}
	return nil
}

func (c *cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	var p mainer.Parser
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		fmt.Fprint(stdio.Stderr, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Hash != "":
		slot := redisc.HashSlotForKey(c.Hash)
		fmt.Fprintf(stdio.Stdout, "slot for %q: %d\n", c.Hash, slot)
		return mainer.Success

	default:
		return c.runCommand(stdio)
	}
}

func (c *cmd) runCommand(stdio mainer.Stdio) mainer.ExitCode {
	seeds := strings.Split(c.Addrs, ",")
	cl, err := redisc.Start("redisc-cli", seeds)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "failed to start cluster: %v\n", err)
		return mainer.Failure
	}
	defer cl.Close()

	command := make(redisc.Command, 0, len(c.args))
	command = append(command, c.args[0])
	for _, a := range c.args[1:] {
		command = append(command, a)
	}

	reply, err := redisc.Q("redisc-cli", command)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%v\n", err)
		return mainer.Failure
	}
	fmt.Fprintln(stdio.Stdout, formatReply(reply))
	return mainer.Success
}

func formatReply(v interface{}) string {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case []interface{}:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = formatReply(e)
		}
		return strings.Join(parts, "\n")
	case nil:
		return "(nil)"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func main() {
	var c cmd
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
