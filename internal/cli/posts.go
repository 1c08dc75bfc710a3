package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/micropost/micropost/internal/model"
)

func (c *cli) postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <email> <content...>",
		Short: "Publish a micropost",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			author, err := c.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			post, err := c.app.Posts.Publish(cmd.Context(), author.ID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "posted id=%s\n", post.ID)
			return nil
		},
	}
}

func (c *cli) postsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "posts <email>",
		Short: "List a user's own posts, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			author, err := c.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			posts, err := c.app.Posts.UserPosts(cmd.Context(), author.ID)
			if err != nil {
				return err
			}

			renderPosts(c.out, posts, map[string]string{author.ID: author.Name})
			return nil
		},
	}
}

func (c *cli) feedCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "feed <email>",
		Short: "Show a user's feed, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			user, err := c.lookup(ctx, args[0])
			if err != nil {
				return err
			}

			var posts []*model.Post
			for post, err := range c.app.Feed.Stream(ctx, user.ID) {
				if err != nil {
					return err
				}
				if limit > 0 && len(posts) == limit {
					break
				}
				posts = append(posts, post)
			}

			names, err := c.authorNames(ctx, posts)
			if err != nil {
				return err
			}

			renderPosts(c.out, posts, names)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many posts (0 shows all)")
	return cmd
}

// authorNames maps author IDs of posts to display names.
func (c *cli) authorNames(ctx context.Context, posts []*model.Post) (map[string]string, error) {
	names := make(map[string]string)
	for _, p := range posts {
		if _, ok := names[p.AuthorID]; ok {
			continue
		}
		u, err := c.app.Users.FindByID(ctx, p.AuthorID)
		if err != nil {
			return nil, err
		}
		names[p.AuthorID] = u.Name
	}
	return names, nil
}
