// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/coreindex/spatial3d/lib/textui"
	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/query"
)

// newQueryCommand implements "query POINTS.txt": load a point file, build
// an index, and run one k-nearest-neighbor lookup against the given
// center, printing each hit's id and squared distance.
func newQueryCommand(logLevel *textui.LogLevelFlag) *cobra.Command {
	var level uint8
	var x, y, z, maxDistance float64
	var k int

	cmd := &cobra.Command{
		Use:   "query POINTS.txt",
		Short: "Build an index from a point file and run a k-nearest-neighbor query",
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
			dlog.Infof(ctx, "querying %d entities for %d nearest neighbors", ix.Len(), k)

			center := geom.Point{X: float32(x), Y: float32(y), Z: float32(z)}
			token := query.NewContextToken(ctx)

			var neighbors []query.Neighbor[uint64]
			var status query.Status
			ix.View(func(q *query.Engine[key.MortonKey, uint64, string]) {
				neighbors, status = q.KNN(token, center, k, maxDistance)
			})
			if status == query.Cancelled {
				return fmt.Errorf("query cancelled")
			}
			for _, n := range neighbors {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%.4f\n", n.ID, n.DistanceSquared)
			}
			return nil
		},
	}
	cmd.Flags().Uint8Var(&level, "level", 8, "fixed insertion level")
	cmd.Flags().Float64Var(&x, "x", 0, "query center X")
	cmd.Flags().Float64Var(&y, "y", 0, "query center Y")
	cmd.Flags().Float64Var(&z, "z", 0, "query center Z")
	cmd.Flags().Float64Var(&maxDistance, "max-distance", 0, "0 means unbounded")
	cmd.Flags().IntVar(&k, "k", 5, "number of neighbors to return")
	return cmd
}
