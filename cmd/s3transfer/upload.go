package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

func newUploadCmd(a *app) *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "upload <file|-> <s3://bucket/key>",
		Short: "Upload a local file, or stdin, as a multipart object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key, err := parseObjectURL(args[1])
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			m, s, err := a.newManager(cmd.Context())
			if err != nil {
				return err
			}

			req := &transfertypes.TransferRequest{
				Bucket:      bucket,
				Key:         key,
				ContentType: contentType,
			}
			total := transfertypes.UnknownSize
			if args[0] == "-" {
				req.Body = os.Stdin
			} else {
				path, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				req.FilePath = path
				total = info.Size()
			}

			h, err := m.Upload(cmd.Context(), req)
			if err != nil {
				return err
			}

			r, err := a.follow(cmd.Context(), h, total, s.Progress)
			if err != nil {
				return err
			}
			a.summarize("uploaded", fmt.Sprintf("s3://%s/%s", bucket, key), r)
			return r.Err
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "object content type (detected when empty)")
	return cmd
}
