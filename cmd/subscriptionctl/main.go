// Package main runs the subscription admin CLI.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	ctlcmd "github.com/fruitbox12/Subscription/internal/cmd/subscriptionctl"
	entrypoint "github.com/fruitbox12/Subscription/internal/platform/cmd"
	"github.com/fruitbox12/Subscription/internal/platform/config"
)

func main() {
	cfg, args, err := ctlcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceSubscriptionCtl))
	inv, err := ctlcmd.ParseInvocation(args)
	if err != nil {
		config.Exitf("%v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctlcmd.Run(ctx, cfg, inv, os.Stdout); err != nil {
		config.Exitf("%v", err)
	}
}
