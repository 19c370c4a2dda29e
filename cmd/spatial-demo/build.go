// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/coreindex/spatial3d/lib/textui"
	"github.com/coreindex/spatial3d/spatial/debug"
	"github.com/coreindex/spatial3d/spatial/index"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/store"
)

// newBuildCommand implements "build POINTS.txt": load a point file, bulk
// insert it into an index, and optionally dump the result as an ASCII or
// OBJ sink.
func newBuildCommand(logLevel *textui.LogLevelFlag) *cobra.Command {
	var level uint8
	var asciiOut, objOut string

	cmd := &cobra.Command{
		Use:   "build POINTS.txt",
		Short: "Bulk-load a point file into a fresh index and optionally dump it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := loggerContext(cmd.Context(), logLevel.Level)

			points, err := loadPoints(args[0])
			if err != nil {
				return err
			}
			dlog.Infof(ctx, "loaded %d points from %s", len(points), args[0])

			ix, err := newIndex(ctx, points, level)
			if err != nil {
				return err
			}
			dlog.Infof(ctx, "index now holds %d entities", ix.Len())

			if asciiOut != "" {
				if err := dumpToFile(ix, asciiOut, func(f *os.File, s *store.Store[key.MortonKey, uint64], m *store.EntityManager[key.MortonKey, uint64, string]) error {
					idLess := func(a, b uint64) bool { return a < b }
					return debug.ASCIIDump(f, s, m, idLess)
				}); err != nil {
					return err
				}
				dlog.Infof(ctx, "wrote ASCII dump to %s", asciiOut)
			}
			if objOut != "" {
				if err := dumpToFile(ix, objOut, func(f *os.File, s *store.Store[key.MortonKey, uint64], _ *store.EntityManager[key.MortonKey, uint64, string]) error {
					return debug.OBJExport(f, s)
				}); err != nil {
					return err
				}
				dlog.Infof(ctx, "wrote OBJ export to %s", objOut)
			}
			return nil
		},
	}
	cmd.Flags().Uint8Var(&level, "level", 8, "fixed insertion level")
	cmd.Flags().StringVar(&asciiOut, "ascii-out", "", "write an ASCII dump to this file")
	cmd.Flags().StringVar(&objOut, "obj-out", "", "write an OBJ wireframe export to this file")
	return cmd
}

// dumpToFile opens path for writing and runs fn with the index's store
// and entity manager under an exclusive Rebuild lease, so the dump sees a
// consistent snapshot even if the caller later adds concurrent writers.
func dumpToFile(
	ix *index.Index[key.MortonKey, uint64, string],
	path string,
	fn func(f *os.File, s *store.Store[key.MortonKey, uint64], m *store.EntityManager[key.MortonKey, uint64, string]) error,
) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var fnErr error
	ix.Rebuild(func(s *store.Store[key.MortonKey, uint64], m *store.EntityManager[key.MortonKey, uint64, string]) {
		fnErr = fn(f, s, m)
	})
	return fnErr
}
