// Command bstore runs the blob store server, and provides a small
// administrative CLI for inserting files and listing buckets against a
// running server.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/aegoroff/bstore/internal/client"
	"github.com/aegoroff/bstore/internal/config"
	"github.com/aegoroff/bstore/internal/engine"
	"github.com/aegoroff/bstore/internal/engine/sqliteengine"
	"github.com/aegoroff/bstore/internal/httpx"
	"github.com/aegoroff/bstore/internal/metrics"
	"github.com/aegoroff/bstore/internal/server"
)

// version is the build-time version string; overridden via -ldflags.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bstore",
		Short: "A content-addressed blob store",
	}
	root.AddCommand(newServerCommand())
	root.AddCommand(newInsertCommand())
	root.AddCommand(newListCommand())
	root.AddCommand(newVersionCommand())
	root.AddCommand(newBugreportCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func newBugreportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bugreport",
		Short: "Print system information useful for bug reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bstore %s\n", version)
			fmt.Fprintf(out, "go: %s\n", runtime.Version())
			fmt.Fprintf(out, "os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

func newServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the blob store HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.Error("create data directory", "dir", cfg.DataDir, "error", err)
		return err
	}

	dbPath := cfg.DatabasePath()
	if _, statErr := os.Stat(dbPath); os.IsNotExist(statErr) {
		bootstrap, openErr := sqliteengine.Open(dbPath, engine.ReadWrite)
		if openErr != nil {
			slog.Error("create database", "path", dbPath, "error", openErr)
			return openErr
		}
		if schemaErr := bootstrap.NewDatabase(); schemaErr != nil {
			bootstrap.Close()
			slog.Error("create schema", "path", dbPath, "error", schemaErr)
			return schemaErr
		}
		bootstrap.Close()
	}

	opener := func(mode engine.Mode) (engine.Engine, error) {
		return sqliteengine.Open(dbPath, mode)
	}

	h := httpx.New(opener, slog.Default())

	var metricsHandler http.Handler
	if cfg.MetricsAddr != "" {
		metricsHandler = metrics.Handler(cfg.MetricsToken)
	}

	srv := server.New(cfg.ListenAddr(), h.Router(), cfg.MetricsAddr, metricsHandler, slog.Default())
	return srv.Run()
}

func newInsertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert data into a running bstore server",
	}
	cmd.AddCommand(newInsertFileCommand())
	return cmd
}

func newInsertFileCommand() *cobra.Command {
	var uri, file, bucket, name string
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Insert a single local file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client.New(uri)
			id, err := c.InsertFile(file, bucket, name)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&uri, "uri", "u", "", "Bstore URI")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to file to insert")
	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Bucket to insert the file into")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Stored name override (defaults to the file's basename)")
	_ = cmd.MarkFlagRequired("uri")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("bucket")
	return cmd
}

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List resources from a running bstore server",
	}
	cmd.AddCommand(newListBucketCommand())
	return cmd
}

func newListBucketCommand() *cobra.Command {
	var uri string
	cmd := &cobra.Command{
		Use:   "bucket",
		Short: "List buckets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client.New(uri)
			buckets, err := c.ListBuckets()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return nil
			}
			out := cmd.OutOrStdout()
			for _, b := range buckets {
				fmt.Fprintf(out, "%s\t%d\n", b.ID, b.FilesCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&uri, "uri", "u", "", "Bstore URI")
	_ = cmd.MarkFlagRequired("uri")
	return cmd
}
