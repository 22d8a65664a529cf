package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zero-install/zeroinstall/config"
	"github.com/zero-install/zeroinstall/manifest"
	"github.com/zero-install/zeroinstall/store"
)

func openStore(configPath string) (*store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return store.New(cfg.Store.Root, cfg.Store.WriteProtect)
}

func newAddCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <digest> <directory>",
		Short: "add a directory to the store under the given manifest digest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(*configPath)
			if err != nil {
				return err
			}
			digest, err := manifest.NewDigest(args[0])
			if err != nil {
				return err
			}
			return s.AddDirectory(context.Background(), args[1], digest, nil)
		},
	}
}

func newFindCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "find <digest>",
		Short: "print the path of an implementation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(*configPath)
			if err != nil {
				return err
			}
			digest, err := manifest.NewDigest(args[0])
			if err != nil {
				return err
			}
			path, ok := s.Path(digest)
			if !ok {
				return fmt.Errorf("not in store: %s", args[0])
			}
			fmt.Println(path)
			return nil
		},
	}
}

func newVerifyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <digest>",
		Short: "recompute and compare an implementation's digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(*configPath)
			if err != nil {
				return err
			}
			digest, err := manifest.NewDigest(args[0])
			if err != nil {
				return err
			}
			return s.Verify(context.Background(), digest, nil)
		},
	}
}

func newOptimiseCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "optimise",
		Short: "hardlink-dedup identical files across the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(*configPath)
			if err != nil {
				return err
			}
			saved, err := s.Optimise(context.Background(), nil)
			if err != nil {
				return err
			}
			fmt.Printf("saved %d bytes\n", saved)
			return nil
		},
	}
}

func newListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every implementation digest in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(*configPath)
			if err != nil {
				return err
			}
			names, err := s.ListAll()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}
