// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command spatial-demo is a small CLI over the spatial3d index: load a
// point file, then build/query/stats against it. It exists to exercise
// spatial/index end to end; it is not itself part of the core library.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/datawire/dlib/dlog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coreindex/spatial3d/lib/textui"
	"github.com/coreindex/spatial3d/spatial/bulk"
	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/index"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/store"
)

// point3D is one record from a point file: "x y z [content]" per line,
// blank lines and lines starting with '#' are skipped.
type point3D struct {
	pos     geom.Point
	content string
}

func loadPoints(path string) ([]point3D, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []point3D
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("%s:%d: expected at least 3 fields, got %d", path, lineNo, len(fields))
		}
		var vals [3]float64
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(fields[i], 32)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			vals[i] = v
		}
		content := ""
		if len(fields) > 3 {
			content = strings.Join(fields[3:], " ")
		}
		out = append(out, point3D{
			pos:     geom.Point{X: float32(vals[0]), Y: float32(vals[1]), Z: float32(vals[2])},
			content: content,
		})
	}
	return out, scanner.Err()
}

// newIndex builds a fresh index.Index over a cubic-octree (Morton) key
// realization and bulk-loads points into it.
func newIndex(ctx context.Context, points []point3D, level uint8) (*index.Index[key.MortonKey, uint64, string], error) {
	idLess := func(a, b uint64) bool { return a < b }
	ix, err := index.New[key.MortonKey, uint64, string](
		store.NewSequentialIDs(),
		func(p geom.Point, lvl uint8) (key.MortonKey, error) { return key.NewMortonKey(p, lvl) },
		idLess,
		index.Config{Level: level, MaxEntitiesPerNode: 64, Policy: store.None},
	)
	if err != nil {
		return nil, err
	}

	inputs := make([]bulk.Input[string], len(points))
	for i, p := range points {
		inputs[i] = bulk.Input[string]{Position: p.pos, Content: p.content}
	}

	if _, err := ix.BulkInsert(ctx, inputs, bulk.Options{Level: level}); err != nil {
		return nil, err
	}
	return ix, nil
}

// loggerContext wraps ctx with a dlog logger at the given level, for
// per-command logger wiring.
func loggerContext(ctx context.Context, level dlog.LogLevel) context.Context {
	logger := logrus.New()
	switch level {
	case dlog.LogLevelError:
		logger.SetLevel(logrus.ErrorLevel)
	case dlog.LogLevelWarn:
		logger.SetLevel(logrus.WarnLevel)
	case dlog.LogLevelDebug:
		logger.SetLevel(logrus.DebugLevel)
	case dlog.LogLevelTrace:
		logger.SetLevel(logrus.TraceLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return dlog.WithLogger(ctx, dlog.WrapLogrus(logger))
}

func main() {
	logLevel := textui.LogLevelFlag{Level: dlog.LogLevelInfo}

	root := &cobra.Command{
		Use:           "spatial-demo",
		Short:         "Build and query an in-memory spatial3d index from a point file",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().Var(&logLevel, "log-level", "one of error, warn, info, debug, trace")

	root.AddCommand(newBuildCommand(&logLevel))
	root.AddCommand(newQueryCommand(&logLevel))
	root.AddCommand(newStatsCommand(&logLevel))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "spatial-demo:", err)
		os.Exit(1)
	}
}
