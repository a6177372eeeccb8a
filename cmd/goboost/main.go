// Command goboost trains gradient boosted tree models, predicts with them
// and inspects saved models.
//
//	goboost train   -c goboost.toml -x X.csv -y y.csv -o model.gbdt
//	goboost predict -m model.gbdt -x X.csv [-o preds.csv] [--proba]
//	goboost inspect -m model.gbdt
//
// Model locations are file paths, or s3://<name> to use the minio store of
// the configuration.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/goboost/config"
	"github.com/YuminosukeSato/goboost/modelstore"
	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

const usage = `Usage: goboost <command> [flags]

Commands:
  train     fit a model on a feature matrix and labels
  predict   score a feature matrix with a saved model
  inspect   print a summary of a saved model

Run "goboost <command> --help" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
	default:
		fmt.Fprintln(os.Stderr, "goboost:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "train":
		return runTrain(ctx, rest, stdout, stderr)
	case "predict":
		return runPredict(ctx, rest, stdout, stderr)
	case "inspect":
		return runInspect(ctx, rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return errors.Newf("unknown command %q", cmd)
	}
}

// commonFlags are shared by every command.
type commonFlags struct {
	configPath string
	logLevel   string
	header     bool
}

func newFlagSet(name string, stderr io.Writer, c *commonFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage of goboost %s:\n", name)
		fs.PrintDefaults()
	}
	fs.StringVarP(&c.configPath, "config", "c", "", "configuration file (toml, yaml or json)")
	fs.StringVar(&c.logLevel, "log-level", "", "override the configured log level")
	fs.BoolVar(&c.header, "header", false, "CSV inputs start with a header row")
	return fs
}

// setup loads the configuration and applies the log level.
func (c *commonFlags) setup() (config.File, error) {
	f, err := config.Load(c.configPath)
	if err != nil {
		return config.File{}, err
	}
	if c.logLevel != "" {
		f.Log.Level = c.logLevel
	}
	if err := log.SetupLogger(f.Log.Level); err != nil {
		return config.File{}, err
	}
	return f, nil
}

const storeScheme = "s3://"

// resolveModel maps a model location onto a store and a model name.
func resolveModel(cfg config.File, location string) (modelstore.Store, string, error) {
	if location == "" {
		return nil, "", errors.NewValidationError("model", "a model location is required", location)
	}
	if name, ok := strings.CutPrefix(location, storeScheme); ok {
		if cfg.Store.Kind != config.StoreMinio {
			return nil, "", errors.NewValidationError("store.kind", "s3:// locations need a minio store", cfg.Store.Kind)
		}
		s, err := modelstore.Open(cfg.Store)
		return s, name, err
	}
	s, err := modelstore.NewFileStore(filepath.Dir(location))
	return s, filepath.Base(location), err
}
