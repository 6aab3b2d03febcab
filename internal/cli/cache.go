package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mangaforge/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered page cache",
	}
	cmd.PersistentFlags().StringVar(&url, "cache", "", "cache location: directory or redis:// URL (default from settings)")

	cmd.AddCommand(c.cacheClearCommand(&url))
	cmd.AddCommand(c.cachePathCommand(&url))

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand(url *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached pages and diagrams",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ch, err := cache.Open(ctx, cacheURL(cfg, false, *url))
			if err != nil {
				return err
			}
			defer ch.Close()

			var n int
			switch ch := ch.(type) {
			case *cache.FileCache:
				n, err = ch.Clear()
				if err == nil {
					defer printDetail("Directory: %s", ch.Dir())
				}
			case *cache.RedisCache:
				n, err = ch.Clear(ctx)
			default:
				printInfo("Caching is disabled")
				return nil
			}
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared %d cached entries", n)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand(url *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			loc := cacheURL(cfg, false, *url)
			if loc == "" {
				if loc, err = cache.DefaultDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Println(loc)
			return nil
		},
	}
}
