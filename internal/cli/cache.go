package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/topogram/topokit/pkg/cache"
	"github.com/topogram/topokit/pkg/config"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the index and graph cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Remove all cached indexes, graphs and rankings",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.clearCache(cmd)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache directory, or the Redis URL when one is set",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				where := cfg.Cache.RedisURL
				if where == "" {
					if where, err = resolveCacheDir(cfg.Cache); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), where)
				return nil
			},
		},
	)
	return cmd
}

func (c *CLI) clearCache(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	ccfg := cfg.Cache
	where := ccfg.RedisURL
	if where == "" {
		if where, err = resolveCacheDir(ccfg); err != nil {
			return err
		}
		if _, err := os.Stat(where); os.IsNotExist(err) {
			printInfo("Cache is empty")
			return nil
		}
		ccfg.Dir = where
	}

	cc, err := newCache(ctx, ccfg, false)
	if err != nil {
		return err
	}
	defer cc.Close()
	clearer, ok := cc.(cache.Clearer)
	if !ok {
		printInfo("Caching is disabled")
		return nil
	}
	n, err := clearer.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	printSuccess("Cleared %d cached entries", n)
	printDetail("%s", where)
	return nil
}

// resolveCacheDir returns the configured file cache directory, or the XDG
// default.
func resolveCacheDir(cfg config.Cache) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return dir, nil
}
