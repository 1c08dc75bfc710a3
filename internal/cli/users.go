package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/micropost/micropost/internal/model"
	"github.com/micropost/micropost/internal/service"
)

// errAuthFailed is returned by login for an unknown email or a wrong password.
var errAuthFailed = errors.New("invalid email or password")

func (c *cli) registerCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, confirmation, err := c.newPassword()
			if err != nil {
				return err
			}

			user, err := c.app.Users.Register(cmd.Context(), service.RegisterInput{
				Name:                 name,
				Email:                email,
				Password:             pw,
				PasswordConfirmation: confirmation,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "registered %s <%s> id=%s\n", user.Name, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) passwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <email>",
		Short: "Set a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			pw, confirmation, err := c.newPassword()
			if err != nil {
				return err
			}
			if err := c.app.Credentials.SetPassword(cmd.Context(), user.ID, pw, confirmation); err != nil {
				return err
			}

			fmt.Fprintf(c.out, "password updated for %s\n", user.Email)
			return nil
		},
	}
}

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Check a user's credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := c.password("Password: ")
			if err != nil {
				return err
			}

			user, ok, err := c.app.Credentials.Authenticate(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			if !ok {
				return errAuthFailed
			}

			fmt.Fprintf(c.out, "authenticated as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
}

func (c *cli) adminCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "admin <email>",
		Short: "Grant or revoke the admin flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.app.Users.SetAdmin(cmd.Context(), user.ID, !revoke); err != nil {
				return err
			}

			fmt.Fprintf(c.out, "admin=%t for %s\n", !revoke, user.Email)
			return nil
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "remove the admin flag instead of granting it")
	return cmd
}

func (c *cli) deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <email>",
		Short: "Delete a user with their follows and posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.app.Users.Delete(cmd.Context(), user.ID); err != nil {
				return err
			}

			fmt.Fprintf(c.out, "deleted %s\n", user.Email)
			return nil
		},
	}
}

// lookup resolves a user by email.
func (c *cli) lookup(ctx context.Context, email string) (*model.User, error) {
	user, err := c.app.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", email, err)
	}
	return user, nil
}
