// Public domain.

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/soniakeys/exit"
	"github.com/spf13/cobra"

	"refconv/niriss"
	"refconv/nirspec"
	"refconv/reffile"
)

var log zerolog.Logger

func main() {
	defer exit.Handler()
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
	if err := rootCmd().Execute(); err != nil {
		exit.Log(err)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "refconv",
		Short:         "convert calibration deliveries to reference files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log = log.Level(level)
	}
	root.AddCommand(nirspecCmd(), nirissCmd(), versionCmd())
	return root
}

func nirspecCmd() *cobra.Command {
	var configPath string
	c := &cobra.Command{
		Use:   "nirspec",
		Short: "convert a complete NIRSpec calibration delivery",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := nirspec.LoadBuildConfig(configPath)
			if err != nil {
				return err
			}
			return nirspec.BuildAll(cfg, log)
		},
	}
	c.Flags().StringVarP(&configPath, "config", "c", "build.yaml", "build configuration file")
	return c
}

func nirissCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "niriss",
		Short: "convert NIRISS grism configuration files",
	}
	c.AddCommand(nirissGrismCmd(), nirissWaverangeCmd())
	return c
}

func nirissGrismCmd() *cobra.Command {
	var out, filter, pupil, author, history string
	c := &cobra.Command{
		Use:   "grism CONFFILE",
		Short: "convert a grism trace configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			log.Info().Str("conf", args[0]).Str("out", out).Msg("converting")
			return niriss.CreateGrismConfig(args[0], filter, pupil, author, history, out)
		},
	}
	c.Flags().StringVarP(&out, "out", "o", "specwcs.yaml", "output file")
	c.Flags().StringVar(&filter, "filter", "", "blocking filter (default: from file name)")
	c.Flags().StringVar(&pupil, "pupil", "", "grism name (default: from file name)")
	c.Flags().StringVar(&author, "author", "", "reference file author")
	c.Flags().StringVar(&history, "history", "", "history entry description")
	return c
}

func nirissWaverangeCmd() *cobra.Command {
	var out, author, history string
	c := &cobra.Command{
		Use:   "waverange",
		Short: "write the wide field slitless wavelength range file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			log.Info().Str("out", out).Msg("writing")
			return niriss.CreateGrismWaverange(out, author, history, nil)
		},
	}
	c.Flags().StringVarP(&out, "out", "o", "waverange.yaml", "output file")
	c.Flags().StringVar(&author, "author", "", "reference file author")
	c.Flags().StringVar(&history, "history", "", "history entry description")
	return c
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the refconv version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Printf("%s %s\n", reffile.Tool.Name, reffile.Tool.Version)
		},
	}
}
