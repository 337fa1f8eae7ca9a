package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

func newDownloadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "download <s3://bucket/key> <file>",
		Short: "Download an object into a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key, err := parseObjectURL(args[0])
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			m, s, err := a.newManager(cmd.Context())
			if err != nil {
				return err
			}

			h, err := m.Download(cmd.Context(), &transfertypes.TransferRequest{
				Bucket:   bucket,
				Key:      key,
				FilePath: path,
			}, nil)
			if err != nil {
				return err
			}

			r, err := a.follow(cmd.Context(), h, transfertypes.UnknownSize, s.Progress)
			if err != nil {
				return err
			}
			a.summarize("downloaded", fmt.Sprintf("s3://%s/%s", bucket, key), r)
			return r.Err
		},
	}
}
