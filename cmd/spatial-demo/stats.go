// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"

	"github.com/coreindex/spatial3d/lib/textui"
	"github.com/coreindex/spatial3d/spatial/debug"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/store"
)

// newStatsCommand implements "stats POINTS.txt": load a point file, build
// an index, and print its debug.Stats structural report.
func newStatsCommand(logLevel *textui.LogLevelFlag) *cobra.Command {
	var level uint8

	cmd := &cobra.Command{
		Use:   "stats POINTS.txt",
		Short: "Build an index from a point file and report structural statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := loggerContext(cmd.Context(), logLevel.Level)

			points, err := loadPoints(args[0])
			if err != nil {
				return err
			}
			ix, err := newIndex(ctx, points, level)
			if err != nil {
				return err
			}

			var stats debug.Stats
			ix.Rebuild(func(s *store.Store[key.MortonKey, uint64], m *store.EntityManager[key.MortonKey, uint64, string]) {
				stats = debug.Compute(s, m.Len())
			})
			return stats.Report(cmd.OutOrStdout())
		},
	}
	cmd.Flags().Uint8Var(&level, "level", 8, "fixed insertion level")
	return cmd
}
