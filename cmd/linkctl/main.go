package main

import (
	"context"
	"fmt"
	"os"

	"squadlink/internal/app"
	"squadlink/internal/cli"
	"squadlink/internal/platform/config"
	"squadlink/internal/platform/logger"
)

func main() {
	connect := func(ctx context.Context) (cli.Engine, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		components, err := app.Build(ctx, cfg, logger.NewTo(os.Stderr, cfg.LogLevel), nil)
		if err != nil {
			return nil, nil, err
		}
		return components.Linking, components.Close, nil
	}

	if err := cli.NewRootCommand(connect).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "linkctl:", err)
		os.Exit(1)
	}
}
