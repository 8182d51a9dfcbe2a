package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rembgd/internal/catalog"
	"rembgd/internal/manager"
	"rembgd/pkg/types"
)

type removeOptions struct {
	algorithm   string
	transparent bool
	background  string
}

func newRemoveCmd(opts *options) *cobra.Command {
	ro := &removeOptions{}
	cmd := &cobra.Command{
		Use:     "remove <in> <out>",
		Short:   "Remove the background of one image file",
		Example: "  rembgd remove photo.jpg cutout.png\n  rembgd remove photo.jpg flat.jpg --transparent=false --background '#336699'",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts, osLookup)
			if err != nil {
				return err
			}
			// One-shot runs build only the requested algorithm.
			cfg.Eager = false
			log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.close(); err != nil {
					log.Warn().Err(err).Msg("shutdown")
				}
			}()
			res, err := removeFile(cmd.Context(), a.mgr, args[0], args[1], ro)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s, %d bytes)\n", args[0], args[1], res.ContentType, len(res.Body))
			return nil
		},
	}
	cmd.Flags().StringVarP(&ro.algorithm, "algorithm", "a", catalog.DefaultID, "Algorithm id (see 'rembgd algorithms')")
	cmd.Flags().BoolVar(&ro.transparent, "transparent", true, "Write PNG with alpha; false flattens onto --background as JPEG")
	cmd.Flags().StringVar(&ro.background, "background", manager.DefaultBackground, "Background colour #RRGGBB for --transparent=false")
	return cmd
}

type remover interface {
	RemoveBackground(ctx context.Context, req types.RemoveRequest) (types.RemoveResult, error)
}

func removeFile(ctx context.Context, svc remover, in, out string, ro *removeOptions) (types.RemoveResult, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return types.RemoveResult{}, err
	}
	res, err := svc.RemoveBackground(ctx, types.RemoveRequest{
		Image:       data,
		Algorithm:   ro.algorithm,
		Transparent: ro.transparent,
		Background:  ro.background,
	})
	if err != nil {
		return types.RemoveResult{}, err
	}
	if err := os.WriteFile(out, res.Body, 0o644); err != nil {
		return types.RemoveResult{}, err
	}
	return res, nil
}
