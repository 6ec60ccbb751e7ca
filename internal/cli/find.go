package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/debugfoundry/debuginfod-go/internal/buildid"
	"github.com/debugfoundry/debuginfod-go/internal/config"
	"github.com/debugfoundry/debuginfod-go/internal/errs"
	"github.com/debugfoundry/debuginfod-go/internal/logging"
	"github.com/debugfoundry/debuginfod-go/pkg/debuginfod"
)

// findOptions carries the flags shared by the three artifact commands.
type findOptions struct {
	verbose    int
	progress   bool
	urls       string
	headers    []string
	pid        int32
	configPath string
}

func (o *findOptions) register(cmd *cobra.Command) {
	cmd.Flags().CountVarP(&o.verbose, "verbose", "v", "enable engine diagnostics (repeat for binding debug logs)")
	cmd.Flags().BoolVar(&o.progress, "progress", false, "show a transfer progress meter on stderr")
	cmd.Flags().StringVar(&o.urls, "urls", "", "space-separated server URLs, overriding DEBUGINFOD_URLS")
	cmd.Flags().StringArrayVar(&o.headers, "header", nil, "custom HTTP header in \"Name: value\" form (repeatable)")
	cmd.Flags().Int32Var(&o.pid, "pid", 0, "resolve the target binary from a running process")
	cmd.Flags().StringVar(&o.configPath, "config", "", "config file (default "+defaultConfigHint()+")")
}

func defaultConfigHint() string {
	if path, ok := config.Path(); ok {
		return path
	}
	return "none"
}

func newDebuginfoCmd() *cobra.Command {
	opts := &findOptions{}
	cmd := &cobra.Command{
		Use:   "debuginfo BUILDID|PATH",
		Short: "Fetch the debug information for a binary",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.resolveBuildID(args)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(client *debuginfod.Client) (debuginfod.Result, error) {
				return client.FindDebuginfo(id)
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newExecutableCmd() *cobra.Command {
	opts := &findOptions{}
	cmd := &cobra.Command{
		Use:   "executable BUILDID|PATH",
		Short: "Fetch the original executable for a binary",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.resolveBuildID(args)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(client *debuginfod.Client) (debuginfod.Result, error) {
				return client.FindExecutable(id)
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newSourceCmd() *cobra.Command {
	opts := &findOptions{}
	cmd := &cobra.Command{
		Use:   "source BUILDID|PATH /absolute/source/path",
		Short: "Fetch a source file of a binary",
		Long: `Fetch one source file of the binary behind a build id. The second argument
is the absolute path of the file exactly as recorded in the binary's debug
information, for example /usr/src/debug/gcc/gcc-main.c.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath := args[len(args)-1]
			if !filepath.IsAbs(sourcePath) {
				return fmt.Errorf("source path %q must be absolute, as recorded in the debug information", sourcePath)
			}
			id, err := opts.resolveBuildID(args[:len(args)-1])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(client *debuginfod.Client) (debuginfod.Result, error) {
				return client.FindSource(id, sourcePath)
			})
		},
	}
	opts.register(cmd)
	return cmd
}

// resolveBuildID turns the positional argument (or --pid) into a BuildID: a
// lowercase hex string is used as-is, anything else is read as an ELF file.
func (o *findOptions) resolveBuildID(args []string) (debuginfod.BuildID, error) {
	switch {
	case o.pid != 0:
		if len(args) != 0 {
			return nil, errors.New("--pid replaces the BUILDID|PATH argument")
		}
		raw, err := buildid.FromPID(o.pid)
		if err != nil {
			return nil, err
		}
		return debuginfod.RawID(raw), nil
	case len(args) == 0:
		return nil, errors.New("expected a BUILDID or PATH argument (or --pid)")
	case buildid.IsHex(args[0]):
		return debuginfod.HexID(args[0]), nil
	default:
		raw, err := buildid.FromFile(args[0])
		if err != nil {
			return nil, err
		}
		return debuginfod.RawID(raw), nil
	}
}

// run opens a client with the merged configuration, applies the optional
// accessors the invocation asked for, executes one query and prints the
// cache path of the artifact.
func (o *findOptions) run(cmd *cobra.Command, query func(*debuginfod.Client) (debuginfod.Result, error)) error {
	logger := logging.NewWithComponent(logging.Config{Verbosity: o.verbose}, "debuginfod-find")

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	urls := cfg.URLs
	if o.urls != "" {
		urls = strings.Fields(o.urls)
	}
	headers := append(cfg.Headers, o.headers...)
	progress := cfg.Progress || o.progress
	engineVerbose := cfg.Verbose || o.verbose > 0

	client, err := debuginfod.New(debuginfod.Config{
		ServerURLs:  urls,
		LibraryPath: cfg.LibraryPath,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer errs.DeferClose(logger, client, "close debuginfod client")

	if engineVerbose {
		if err := client.SetVerboseFd(int(os.Stderr.Fd())); err != nil {
			var capErr *debuginfod.CapabilityError
			if !errors.As(err, &capErr) {
				return err
			}
			logger.Warn().Msg("installed engine does not support verbose output")
		}
	}

	for _, header := range headers {
		if err := client.AddHTTPHeader(header); err != nil {
			return err
		}
	}

	if progress {
		if meter := newProgressMeter(os.Stderr); meter != nil {
			if err := client.SetProgressFn(meter.update); err != nil {
				return err
			}
			defer meter.finish()
		}
	}

	res, err := query(client)
	if err != nil {
		return err
	}
	if !res.Found() {
		return fmt.Errorf("query failed: %v", res.Err())
	}
	defer errs.DeferClose(logger, res, "close artifact descriptor")

	if url, err := client.URL(); err == nil && url != "" {
		logger.Info().Str("url", url).Msg("artifact served")
	}

	cmd.Println(res.Path)
	return nil
}
