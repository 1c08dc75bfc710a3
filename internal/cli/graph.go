package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/micropost/micropost/internal/model"
)

func (c *cli) followCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "follow <follower-email> <followed-email>",
		Short: "Make one user follow another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			follower, followed, err := c.lookupPair(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := c.app.Graph.Follow(cmd.Context(), follower.ID, followed.ID); err != nil {
				return err
			}

			fmt.Fprintf(c.out, "%s now follows %s\n", follower.Email, followed.Email)
			return nil
		},
	}
}

func (c *cli) unfollowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfollow <follower-email> <followed-email>",
		Short: "Remove a follow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			follower, followed, err := c.lookupPair(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := c.app.Graph.Unfollow(cmd.Context(), follower.ID, followed.ID); err != nil {
				return err
			}

			fmt.Fprintf(c.out, "%s no longer follows %s\n", follower.Email, followed.Email)
			return nil
		},
	}
}

func (c *cli) followingCmd() *cobra.Command {
	return c.listCmd("following <email>", "List the users someone follows",
		func(ctx context.Context, id string) ([]*model.User, error) {
			return c.app.Graph.Following(ctx, id)
		})
}

func (c *cli) followersCmd() *cobra.Command {
	return c.listCmd("followers <email>", "List someone's followers",
		func(ctx context.Context, id string) ([]*model.User, error) {
			return c.app.Graph.Followers(ctx, id)
		})
}

func (c *cli) listCmd(use, short string, list func(ctx context.Context, id string) ([]*model.User, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			users, err := list(cmd.Context(), user.ID)
			if err != nil {
				return err
			}

			renderUsers(c.out, users)
			return nil
		},
	}
}

func (c *cli) lookupPair(ctx context.Context, a, b string) (*model.User, *model.User, error) {
	first, err := c.lookup(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	second, err := c.lookup(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}
