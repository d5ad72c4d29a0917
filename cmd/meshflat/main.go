// meshflat flattens scene meshes into per-material triangle sections and
// exports them as binary dumps.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/meshflat/internal/config"
	"github.com/Faultbox/meshflat/internal/logger"
	"github.com/Faultbox/meshflat/internal/session"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level: cfg.Logging.Level,
		File:  logFileConfig(cfg.Logging.LogFile),
		Quiet: cfg.Logging.Quiet,
	})
	defer logger.Sync(log)

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, rest := args[0], args[1:]
	var runErr error
	switch command {
	case "info":
		runErr = cmdInfo(ctx, cfg, log, rest)
	case "geometries", "geo":
		runErr = cmdGeometries(ctx, cfg, log, rest)
	case "materials", "mat":
		runErr = cmdMaterials(ctx, cfg, log, rest)
	case "nodes":
		runErr = cmdNodes(ctx, cfg, log, rest)
	case "export", "x":
		runErr = cmdExport(ctx, cfg, log, rest)
	case "watch":
		runErr = cmdWatch(ctx, cfg, log, rest)
	case "config":
		runErr = cmdConfig(cfg, rest)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if runErr != nil {
		log.Debug("command failed", zap.String("command", command), zap.Error(runErr))
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		logger.Sync(log)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshflat - scene mesh flattener

Usage:
  meshflat [flags] <command> <scene> [output]

Commands:
  info <scene>                 Show document metadata and counts
  geometries <scene>           List flattened geometries and their sections
  materials <scene>            List materials
  nodes <scene>                Print the node hierarchy
  export <scene> <out.mflt>    Write the binary mesh dump
  watch <scene> <out.mflt>     Re-export whenever the scene file changes
  config [save]                Print the effective config, or save it to the user config dir

Scenes are meshflat YAML descriptions (.yaml, .yml) or glTF 2.0 (.gltf, .glb).

Flags:
  -config <file>   Config file (default ./meshflat.yaml or the user config dir)
  -debug           Enable debug logging
  -quiet           Disable console logging
  -workers <n>     Geometries resolved in parallel (0 = all CPUs)
  -shading <p>     flat or smooth
  -legacy          Write the headerless legacy dump layout
  -weld            Merge identical vertices when exporting

Examples:
  meshflat info castle.yaml
  meshflat -shading smooth geometries castle.gltf
  meshflat -weld export castle.glb castle.mflt`)
}

func logFileConfig(path string) logger.FileConfig {
	if path == "" {
		return logger.FileConfig{}
	}
	return logger.DefaultFileConfig(path)
}

// openSession creates a session from cfg and loads the scene at path.
func openSession(ctx context.Context, cfg *config.Config, log *zap.Logger, path string) (*session.Session, error) {
	s, err := newSession(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx, path); err != nil {
		return nil, err
	}
	return s, nil
}

func newSession(cfg *config.Config, log *zap.Logger) (*session.Session, error) {
	shading, err := cfg.ShadingPolicy()
	if err != nil {
		return nil, err
	}
	corners, err := cfg.CornerIndexing()
	if err != nil {
		return nil, err
	}
	return session.New(session.Options{
		Workers: cfg.Flatten.Workers,
		Shading: shading,
		Corners: corners,
	}, log)
}
