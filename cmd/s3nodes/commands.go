package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobstoit/s3nodes/nodes"
	"github.com/jobstoit/s3nodes/raster"
)

func newConfigInfoCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config-info",
		Short: "Show where the config file lives and which profiles are set up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := opts.registry.Execute(cmd.Context(), "S3ConfigInfo", nodes.Inputs{"refresh": true})
			if res.Failed() {
				return resultError(res)
			}

			out := res.Outputs[0].(string)
			if opts.jsonOutput {
				return writeRaw(cmd.OutOrStdout(), out)
			}

			var report nodes.ConfigReport
			if err := json.Unmarshal([]byte(out), &report); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "config: %s (exists=%t)\n", report.ConfigFilePath, report.ConfigExists)
			for _, p := range report.Profiles {
				fmt.Fprintf(w, "  %-16s %-24s %-32s configured=%t\n", p.Name, p.DisplayName, p.Endpoint, p.Configured)
			}
			for _, line := range report.Instructions {
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
}

func newListCmd(opts *cliOptions) *cobra.Command {
	var (
		prefix     string
		maxObjects int
	)

	cmd := &cobra.Command{
		Use:   "list <bucket>",
		Short: "List objects in a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := opts.registry.Execute(cmd.Context(), "ListS3Objects", nodes.Inputs{
				"profile":     opts.profile,
				"bucket":      args[0],
				"prefix":      prefix,
				"max_objects": maxObjects,
			})
			if res.Failed() {
				return resultError(res)
			}

			out := res.Outputs[0].(string)
			if opts.jsonOutput {
				return writeRaw(cmd.OutOrStdout(), out)
			}

			var listed []nodes.ListedObject
			if err := json.Unmarshal([]byte(out), &listed); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, obj := range listed {
				modified := "-"
				if obj.LastModified != nil {
					modified = *obj.LastModified
				}
				fmt.Fprintf(w, "%10d  %-20s  %s\n", obj.Size, modified, obj.ObjectName)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only list keys with this prefix")
	cmd.Flags().IntVar(&maxObjects, "max", 100, "maximum objects to return (1-1000)")

	return cmd
}

func newSaveCmd(opts *cliOptions) *cobra.Command {
	var (
		bucket         string
		prefix         string
		filenamePrefix string
		region         string
	)

	cmd := &cobra.Command{
		Use:   "save <image>...",
		Short: "Upload images as PNG objects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := make(raster.Batch, 0, len(args))
			for _, file := range args {
				img, err := imaging.Open(file, imaging.AutoOrientation(true))
				if err != nil {
					return fmt.Errorf("open %s: %w", file, err)
				}

				frame, _ := raster.FromImage(img)
				batch = append(batch, frame)
			}

			res := opts.registry.Execute(cmd.Context(), "SaveImageToS3", nodes.Inputs{
				"images":          batch,
				"profile":         opts.profile,
				"bucket":          bucket,
				"prefix":          prefix,
				"filename_prefix": filenamePrefix,
				"custom_region":   region,
			})
			if res.Failed() {
				return resultError(res)
			}

			out := res.Outputs[0].(string)
			if opts.jsonOutput {
				return writeRaw(cmd.OutOrStdout(), out)
			}

			var saved []nodes.SavedObject
			if err := json.Unmarshal([]byte(out), &saved); err != nil {
				return err
			}

			for _, obj := range saved {
				fmt.Fprintln(cmd.OutOrStdout(), obj.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "target bucket")
	cmd.Flags().StringVar(&prefix, "prefix", "comfyui/", "object key prefix")
	cmd.Flags().StringVar(&filenamePrefix, "filename-prefix", "image", "file name prefix")
	cmd.Flags().StringVar(&region, "region", "", "override the profile region")

	return cmd
}

func newLoadCmd(opts *cliOptions) *cobra.Command {
	var (
		out      string
		maskPath string
	)

	cmd := &cobra.Command{
		Use:   "load <bucket> <object-key>",
		Short: "Download an image and write it as a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := opts.registry.Execute(cmd.Context(), "LoadImageFromS3", nodes.Inputs{
				"profile":    opts.profile,
				"bucket":     args[0],
				"object_key": args[1],
			})
			if res.Failed() {
				return resultError(res)
			}

			batch, ok := res.Outputs[0].(raster.Batch)
			if !ok || len(batch) == 0 {
				return errors.New("no image returned")
			}
			mask, _ := res.Outputs[1].(raster.Mask)

			if out == "" {
				out = strings.TrimSuffix(path.Base(args[1]), path.Ext(args[1])) + ".png"
			}

			if err := imaging.Save(batch[0].Image(), out); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			opts.logger.Debug("wrote image", zap.String("path", out))

			if maskPath != "" {
				if err := imaging.Save(mask.Image(), maskPath); err != nil {
					return fmt.Errorf("write %s: %w", maskPath, err)
				}
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"image":  out,
					"mask":   maskPath,
					"width":  batch[0].Width,
					"height": batch[0].Height,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to the object name as .png)")
	cmd.Flags().StringVar(&maskPath, "mask", "", "also write the mask to this file")

	return cmd
}

func newNodesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "Describe the nodes offered to the host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printSpecs(cmd.OutOrStdout(), opts.registry.Specs(), opts.jsonOutput)
		},
	}
}
