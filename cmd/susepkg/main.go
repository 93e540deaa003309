package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/frederic-klein/susepkg/internal/catalog"
	"github.com/frederic-klein/susepkg/internal/config"
	"github.com/frederic-klein/susepkg/internal/errs"
	"github.com/frederic-klein/susepkg/internal/fetcher"
	"github.com/frederic-klein/susepkg/internal/index"
	"github.com/frederic-klein/susepkg/internal/logger"
	"github.com/frederic-klein/susepkg/internal/matcher"
	"github.com/frederic-klein/susepkg/internal/report"
	"github.com/frederic-klein/susepkg/internal/resolver"
)

const version = "2.2"

const listProducts = "list"

// errSilent exits non-zero without printing anything further.
var errSilent = errors.New("silent exit")

type options struct {
	arch        string
	insensitive bool
	regex       bool
	products    productFlag
	output      string
}

// productFlag collects repeated -p values, normalizing each as it is parsed.
type productFlag []string

var _ pflag.Value = (*productFlag)(nil)

func (p *productFlag) String() string {
	return strings.Join(*p, ",")
}

func (p *productFlag) Set(s string) error {
	*p = append(*p, catalog.NormalizeProduct(s))
	return nil
}

func (p *productFlag) Type() string {
	return "product"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	logger.Sync()
	if err == nil {
		return 0
	}
	if !errors.Is(err, errSilent) {
		fmt.Fprintln(stderr, errs.Message(err))
	}
	return 1
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "susepkg [flags] [package]",
		Short:         "show SUSE package versions",
		Long:          "susepkg shows the latest version of a package on SUSE and openSUSE products.\nThe package may be a shell pattern or regular expression.",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, args, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetVersionTemplate("v{{.Version}}\n")

	rootCmd.Flags().StringVarP(&opts.arch, "arch", "a", "", "architecture: "+strings.Join(config.Architectures, ", ")+" (default host architecture)")
	rootCmd.Flags().BoolVarP(&opts.insensitive, "insensitive", "i", false, "case insensitive search")
	rootCmd.Flags().BoolVarP(&opts.regex, "regex", "x", false, "search regular expression")
	rootCmd.Flags().VarP(&opts.products, "product", "p", "product or 'list' or 'any'. May be specified multiple times")
	rootCmd.Flags().StringVarP(&opts.output, "output", "o", string(report.FormatText), "output format: text, json, yaml")
	_ = rootCmd.MarkFlagRequired("product")

	return rootCmd
}

func runSearch(cmd *cobra.Command, opts *options, args []string, stderr io.Writer) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.arch != "" {
		cfg.Arch = opts.arch
	}
	if !config.ValidArch(cfg.Arch) {
		return &errs.Error{Op: "main", Kind: errs.ErrInvalid, Message: "Invalid architecture: " + cfg.Arch}
	}
	format, err := report.ParseFormat(opts.output)
	if err != nil {
		return err
	}

	log := logger.Init(stderr, cfg.Debug)
	log.Debugf("config: %+v", *cfg)

	client := index.NewClient(cfg.Timeout, cfg.RateLimit, cfg.Debug)
	scc := index.NewSCC(cfg.SCCURL, client)
	opensuse := index.NewOpenSUSE(cfg.DistributionsURL, cfg.MirrorURL, client)
	cat := catalog.New(scc, opensuse)
	emitter := report.NewEmitter(cmd.OutOrStdout(), format)

	terms := []string(opts.products)
	if len(terms) == 1 && terms[0] == listProducts {
		products, err := cat.Products(ctx, cfg.Arch)
		if err != nil {
			return quiet(err)
		}
		return emitter.EmitProducts(products)
	}

	if len(args) == 0 {
		_ = cmd.Help()
		return errSilent
	}
	pattern := args[0]

	m, err := matcher.Compile(pattern, opts.insensitive, opts.regex)
	if err != nil {
		return err
	}
	query, ok := matcher.BareName(pattern)
	if !ok {
		return &errs.Error{Op: "main", Kind: errs.ErrInvalid, Message: "Invalid package: " + pattern}
	}
	log.Debugf("searching %q with %s", query, m)

	products, err := cat.Select(ctx, terms, cfg.Arch)
	if err != nil {
		return quiet(err)
	}

	f := fetcher.NewFetcher(resolver.NewResolver(scc, opensuse), cfg.Workers, stderr)
	packages, err := f.ResolveAll(ctx, products, query, m)
	if err != nil {
		return quiet(err)
	}
	return emitter.Emit(packages)
}

// quiet suppresses the message of errors that were already logged or that
// stem from an interrupt.
func quiet(err error) error {
	if errors.Is(err, errs.ErrTransient) || errors.Is(err, context.Canceled) {
		return errSilent
	}
	return err
}
