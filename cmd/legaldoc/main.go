// Command legaldoc converts legal documents into normalized, chunked Markdown.
//
//	legaldoc convert contrato.pdf -o contrato.md
//	legaldoc serve --listen :8090
//	legaldoc mcp
//	legaldoc formats
//
// Configuration comes from an optional YAML file (--config), then LEGALDOC_*
// environment variables, with .env files loaded first.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/legaldoc/convert"
	"github.com/hazyhaar/legaldoc/docpipe"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	envFiles   []string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:          "legaldoc",
		Short:        "Convierte documentos jurídicos a Markdown con chunking",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", []string{".env"}, ".env files to load")

	root.AddCommand(
		convertCmd(&flags),
		serveCmd(&flags),
		mcpCmd(&flags),
		formatsCmd(),
	)
	return root
}

// setup loads .env files and the config, and builds the logger. Logs go to
// stderr so that stdout stays free for the mcp stdio transport.
func setup(flags *rootFlags) (*convert.Config, *slog.Logger, error) {
	convert.LoadDotEnv(flags.envFiles...)
	cfg, err := convert.LoadConfig(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	level, _ := convert.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// --- convert ---

func convertCmd(flags *rootFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "convert <archivo>",
		Short: "Convierte un documento (PDF/DOCX/TXT/MD/HTML) a Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			input := args[0]
			if output == "" {
				output = defaultOutput(input)
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}
			svc := convert.NewFromConfig(cfg, logger)
			res, err := svc.Convert(cmd.Context(), convert.Item{Filename: filepath.Base(input), Data: data})
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, []byte(res.Markdown), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Markdown generado en: %s\n", output)
			printDiagnostics(out, res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "ruta de salida del Markdown (por defecto: <archivo>.md)")
	return cmd
}

// defaultOutput swaps the input suffix for .md, never overwriting a
// Markdown input.
func defaultOutput(input string) string {
	out := strings.TrimSuffix(input, filepath.Ext(input)) + ".md"
	if out == input {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".converted.md"
	}
	return out
}

func printDiagnostics(w io.Writer, res *convert.Result) {
	d := res.Diagnostics
	fmt.Fprintf(w, "  formato: %s  parser: %s  chunks: %d\n", res.Format, d.Parser, res.Chunks)
	if d.OCRUsed {
		fmt.Fprintf(w, "  OCR: sí (%s)\n", d.OCRLanguage)
	}
	for _, n := range d.Notes {
		fmt.Fprintf(w, "  nota: %s\n", n)
	}
}

// --- serve ---

func serveCmd(flags *rootFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Arranca la API HTTP de conversión",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := convert.NewFromConfig(cfg, logger)
			srv := &http.Server{
				Addr: cfg.Listen,
				Handler: convert.NewRouter(svc, convert.RouterConfig{
					MaxBody: int64(cfg.MaxBatch)*cfg.MaxFileBytes() + 1<<20,
					Logger:  logger,
				}),
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server starting", "listen", cfg.Listen, "ocr", cfg.OCR.Enabled)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen %s: %w", cfg.Listen, err)
				}
			case <-ctx.Done():
			}
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown", "error", err)
			}
			logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "dirección de escucha (por defecto: listen del config)")
	return cmd
}

// --- mcp ---

func mcpCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Sirve las herramientas MCP por stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := newMCPServer(cfg, logger)
			logger.Info("mcp stdio server starting")
			return srv.Run(ctx, &mcp.StdioTransport{})
		},
	}
}

// newMCPServer exposes conversion and the extraction tools.
func newMCPServer(cfg *convert.Config, logger *slog.Logger) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "legaldoc", Version: version}, nil)

	svc := convert.NewFromConfig(cfg, logger)
	svc.RegisterMCP(srv)

	cfg.NewPipeline(logger).RegisterMCP(srv)
	return srv
}

// --- formats ---

func formatsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "Lista los formatos soportados",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(map[string]any{
					"formats":  docpipe.SupportedFormats(),
					"suffixes": docpipe.SupportedSuffixes(),
				})
			}
			fmt.Fprintln(out, strings.Join(docpipe.SupportedSuffixes(), " "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida JSON")
	return cmd
}
