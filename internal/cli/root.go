// Package cli implements the socialctl operator commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/micropost/micropost/internal/app"
)

// AppFactory builds the application for one command invocation.
type AppFactory func(ctx context.Context) (*app.App, error)

// cli carries the state shared by every command of one invocation.
type cli struct {
	newApp AppFactory
	app    *app.App
	cancel context.CancelFunc

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	passwordStdin bool
	printMetrics  bool
}

// NewRootCmd returns the socialctl command tree.
func NewRootCmd(newApp AppFactory, in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{
		newApp: newApp,
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}

	root := &cobra.Command{
		Use:           "socialctl",
		Short:         "Micropost social graph operator CLI",
		Long:          "Command line interface for managing users, follows, posts and feeds of a micropost deployment.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().BoolVar(&c.passwordStdin, "password-stdin", false, "read passwords from stdin, one per line, instead of prompting")
	root.PersistentFlags().BoolVar(&c.printMetrics, "print-metrics", false, "write Prometheus metrics to stderr after the command")

	root.AddCommand(
		c.registerCmd(),
		c.passwdCmd(),
		c.loginCmd(),
		c.adminCmd(),
		c.deleteUserCmd(),
		c.followCmd(),
		c.unfollowCmd(),
		c.followingCmd(),
		c.followersCmd(),
		c.postCmd(),
		c.postsCmd(),
		c.feedCmd(),
		c.checkCmd(),
		c.demoCmd(),
	)

	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, newApp AppFactory, args []string, in io.Reader, out, errOut io.Writer) int {
	root := NewRootCmd(newApp, in, out, errOut)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return 1
	}
	return 0
}

func (c *cli) setup(cmd *cobra.Command) error {
	// Built-in commands need no backends.
	for p := cmd; p != nil; p = p.Parent() {
		if p.Name() == "help" || p.Name() == cobra.ShellCompRequestCmd || p.Name() == "completion" {
			return nil
		}
	}

	ctx := cmd.Context()

	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	c.app = a

	if timeout := a.Config.OperationTimeout; timeout > 0 {
		ctx, c.cancel = context.WithTimeout(ctx, timeout)
		cmd.SetContext(ctx)
	}
	return nil
}

func (c *cli) teardown() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.app == nil {
		return nil
	}
	if c.printMetrics {
		if err := c.app.WriteMetrics(c.errOut); err != nil {
			return err
		}
	}
	c.app.Close()
	return nil
}
