// Package main provides the entry point for the mirrorfs daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mirrorfs/mirrorfs/internal/config"
	"github.com/mirrorfs/mirrorfs/internal/fs"
	"github.com/mirrorfs/mirrorfs/internal/logging"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-config file] <target-directory> <mountpoint>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(1)
	}
	target := flag.Arg(0)
	mountPoint := flag.Arg(1)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	mfs, err := fs.New(target, logging.L())
	if err != nil {
		logging.S().Fatalf("invalid target directory %s: %v", target, err)
	}

	mnt, err := fs.NewMount(mfs, &fs.MountConfig{
		MountPoint:    mountPoint,
		FsName:        cfg.Mount.FsName,
		AllowOther:    cfg.Mount.AllowOther,
		Debug:         cfg.Mount.Debug,
		MaxBackground: cfg.Mount.MaxBackground,
		AttrTimeout:   cfg.Mount.GetAttrTimeout(),
	})
	if err != nil {
		logging.S().Fatalf("invalid mount point %s: %v", mountPoint, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.S().Infof("mounting %s at %s", target, mountPoint)
	if err := mnt.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.S().Fatalf("mount failed: %v", err)
	}
	logging.S().Infof("unmounted %s", mountPoint)
}
