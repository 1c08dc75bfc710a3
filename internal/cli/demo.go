package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/micropost/micropost/internal/model"
	"github.com/micropost/micropost/internal/service"
)

const demoPassword = "secret1"

func (c *cli) demoCmd() *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a two-user follow and feed walkthrough",
		Long: "Registers two users, has B post, A follow B and A post, then prints A's feed " +
			"before and after A unfollows B. The users are deleted afterwards unless --keep is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDemo(cmd.Context(), keep)
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "keep the demo users and posts")
	return cmd
}

func (c *cli) runDemo(ctx context.Context, keep bool) error {
	// Suffix keeps reruns against a persistent store from colliding.
	suffix := strings.ToLower(ulid.Make().String()[20:])

	a, err := c.demoUser(ctx, "A", "a+"+suffix+"@x.com")
	if err != nil {
		return err
	}
	b, err := c.demoUser(ctx, "B", "b+"+suffix+"@x.com")
	if err != nil {
		return err
	}
	if !keep {
		defer c.removeDemoUsers(ctx, a, b)
	}

	if _, err := c.app.Posts.Publish(ctx, b.ID, "hello"); err != nil {
		return err
	}
	if err := c.app.Graph.Follow(ctx, a.ID, b.ID); err != nil {
		return err
	}
	if _, err := c.app.Posts.Publish(ctx, a.ID, "world"); err != nil {
		return err
	}

	if err := c.printFeed(ctx, a, "after A follows B"); err != nil {
		return err
	}

	if err := c.app.Graph.Unfollow(ctx, a.ID, b.ID); err != nil {
		return err
	}
	return c.printFeed(ctx, a, "after A unfollows B")
}

func (c *cli) demoUser(ctx context.Context, name, email string) (*model.User, error) {
	user, err := c.app.Users.Register(ctx, service.RegisterInput{
		Name:                 name,
		Email:                email,
		Password:             demoPassword,
		PasswordConfirmation: demoPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", email, err)
	}
	fmt.Fprintf(c.out, "registered %s <%s>\n", user.Name, user.Email)
	return user, nil
}

func (c *cli) printFeed(ctx context.Context, user *model.User, label string) error {
	posts, err := c.app.Feed.Feed(ctx, user.ID)
	if err != nil {
		return err
	}
	names, err := c.authorNames(ctx, posts)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "feed(%s) %s:\n", user.Name, label)
	renderPosts(c.out, posts, names)
	return nil
}

func (c *cli) removeDemoUsers(ctx context.Context, users ...*model.User) {
	for _, u := range users {
		if err := c.app.Users.Delete(ctx, u.ID); err != nil {
			c.app.Logger.Warn("demo_cleanup_failed", "user_id", u.ID, "error", err)
		}
	}
}
