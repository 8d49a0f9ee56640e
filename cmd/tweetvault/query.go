package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"tweetvault/internal/chain"
	"tweetvault/internal/config"
	"tweetvault/internal/registry"
	"tweetvault/internal/storage"
	"tweetvault/internal/storage/postgres"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query processed records",
		RunE:  runQuery,
	}

	cmd.Flags().String("pg-dsn", "", "Postgres DSN, empty reads the local record directory")
	cmd.Flags().String("data-dir", "./data", "local record directory")
	cmd.Flags().String("rpc", "", "chain RPC URL, for the on-chain count")
	cmd.Flags().String("registry-contract", "", "registry contract address, for the on-chain count")
	cmd.Flags().String("token", "", "filter by token symbol")
	cmd.Flags().String("handle", "", "filter by author handle")
	cmd.Flags().Int("limit", 20, "max records to return")
	cmd.Flags().Bool("count", false, "print only the total record count")

	return cmd
}

func runQuery(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	token, _ := cmd.Flags().GetString("token")
	handle, _ := cmd.Flags().GetString("handle")
	limit, _ := cmd.Flags().GetInt("limit")
	countOnly, _ := cmd.Flags().GetBool("count")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	// The count can come from the on-chain registry when no archive is
	// configured.
	if countOnly && cfg.PGDSN == "" {
		if cfg.RPCURL == "" || cfg.RegistryContract == "" {
			return fmt.Errorf("count requires pg-dsn or rpc plus registry-contract")
		}
		chainClient, err := chain.NewClient(cmd.Context(), cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		reg := registry.NewClient(chainClient, nil,
			common.HexToAddress(cfg.RegistryContract), nil)
		n, err := reg.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	}

	if cfg.PGDSN == "" {
		if token != "" || handle != "" {
			return fmt.Errorf("token and handle filters require pg-dsn")
		}
		records, err := storage.NewLocalStore(cfg.DataDir).List(limit)
		if err != nil {
			return err
		}
		return enc.Encode(records)
	}

	store, err := postgres.NewStore(cmd.Context(), cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if countOnly {
		n, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	}

	var summaries []postgres.Summary
	switch {
	case token != "":
		summaries, err = store.ByToken(cmd.Context(), token, limit)
	case handle != "":
		summaries, err = store.ByHandle(cmd.Context(), handle, limit)
	default:
		return fmt.Errorf("one of --token, --handle or --count is required with pg-dsn")
	}
	if err != nil {
		return err
	}
	return enc.Encode(summaries)
}
