// Package cmd implements the zine command line.
//
// Configuration is resolved in this order, highest first: command-line
// flags, ZINE_* environment variables, the file named by --config, and
// built-in defaults.
package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/iedon/zine-go/config"
	"github.com/iedon/zine-go/data"
)

// Info identifies the running binary.
type Info struct {
	Version   string
	Signature string
}

type app struct {
	info    Info
	v       *viper.Viper
	cfgFile string
	out     io.Writer
	loader  data.Loader
}

// NewRootCommand assembles the command tree.
func NewRootCommand(info Info) *cobra.Command {
	a := &app{info: info, v: config.New(), out: os.Stdout}

	root := &cobra.Command{
		Use:   "zine",
		Short: "Build a static magazine site from seasons of markdown articles",
		Long: `zine reads zine.toml from the source directory, renders every season,
article and page through html/template, and writes index.html files into
the destination directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			return config.ReadFile(a.v, a.cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "configuration file (toml, yaml or json)")
	flags.StringP("source", "s", ".", "zine source directory")
	flags.StringP("dest", "d", "build", "output directory")
	flags.String("templates", "", "template glob, relative to the source directory")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	bindFlags(a.v, flags, map[string]string{
		"source":    "source",
		"dest":      "dest",
		"templates": "templates",
		"log-level": "logLevel",
	})

	root.AddCommand(
		a.newBuildCommand(),
		a.newWatchCommand(),
		a.newServeCommand(),
		a.newVersionCommand(),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(info Info) {
	if err := NewRootCommand(info).Execute(); err != nil {
		os.Exit(1)
	}
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}
