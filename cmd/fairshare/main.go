package main

import (
	"context"
	"os"

	"github.com/armadaproject/fairshare/cmd/fairshare/cmd"
	"github.com/armadaproject/fairshare/internal/common/app"
	"github.com/armadaproject/fairshare/internal/common/logging"
)

func main() {
	logging.ConfigureCommandLineLogging()
	ctx, cancel := app.CreateContextWithShutdown(context.Background())
	err := cmd.RootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
