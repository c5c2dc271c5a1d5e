package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"matchcore/internal/common"
	"matchcore/internal/exchange"
	exnet "matchcore/internal/net"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	core := exchange.New(exchange.DefaultConfig(), zerolog.New(log.Logger))
	core.AddSymbol(common.DefaultSymbolSpec(1, 1, 2)) // base=1, quote=2

	srv := exnet.New("0.0.0.0", 9001, core)
	core.SetResultConsumer(srv.HandleResult)
	core.Startup(ctx)
	defer core.Shutdown()

	go srv.Run(ctx)
	<-ctx.Done()
}
