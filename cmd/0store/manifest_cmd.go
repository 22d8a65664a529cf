package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zero-install/zeroinstall/manifest"
)

func newManifestCmd() *cobra.Command {
	var algo string

	cmd := &cobra.Command{
		Use:   "manifest <directory>",
		Short: "print the canonical manifest digest of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Generate(args[0], manifest.Algorithm(algo))
			if err != nil {
				return err
			}
			digest, err := m.Digest()
			if err != nil {
				return err
			}
			fmt.Printf("%s_%s\n", algo, digest)
			return nil
		},
	}
	cmd.Flags().StringVar(&algo, "algorithm", string(manifest.SHA256New), "manifest algorithm (sha1new, sha256, sha256new)")
	return cmd
}
