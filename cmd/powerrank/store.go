package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/gridironlab/powerrank/internal/library"
)

// openStore resolves the rating library backend from flags. Remote
// backends are wrapped in a circuit breaker; nil means persistence is
// disabled.
func openStore(cmd *cobra.Command) (library.Store, error) {
	if dsn, _ := cmd.Flags().GetString("library-dsn"); dsn != "" {
		store, err := library.NewPostgresStore(dsn, 10*time.Second)
		if err != nil {
			return nil, err
		}
		return library.NewBreakerStore("postgres", store), nil
	}
	if addr, _ := cmd.Flags().GetString("library-redis"); addr != "" {
		store := library.NewRedisStore(library.RedisOptions{Addr: addr})
		return library.NewBreakerStore("redis", store), nil
	}
	if dir, _ := cmd.Flags().GetString("library"); dir != "" {
		return library.NewFileStore(dir)
	}
	return nil, nil
}
