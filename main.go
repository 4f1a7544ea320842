package main

import (
	"log"

	"github.com/earthboundkid/versioninfo/v2"
	"github.com/joho/godotenv"
	"github.com/rm-hull/photo-uniqualizer/cmd"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string
	var port int
	var debug bool

	var opts cmd.UniqualizeOptions
	var seed uint64

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	rootCmd := &cobra.Command{
		Use:  "photo-uniqualizer",
		Long: `Produces visually identical but byte-distinct variants of a photo`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	apiServerCmd := &cobra.Command{
		Use:   "api-server [--port <port>] [--debug]",
		Short: "Start HTTP API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.ApiServer(configPath, port, debug)
		},
	}
	apiServerCmd.Flags().IntVar(&port, "port", 8080, "Port to run HTTP server on")
	apiServerCmd.Flags().BoolVar(&debug, "debug", false, "Enable debugging (pprof) - WARNING: do not enable in production")

	uniqualizeCmd := &cobra.Command{
		Use:   "uniqualize [<file>] [--url <url>] [flags]",
		Short: "Write uniqualized variants of a photo to disk",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Input = args[0]
			}
			if c.Flags().Changed("seed") {
				opts.Seed = &seed
			}
			opts.ConfigPath = configPath
			return cmd.Uniqualize(c.Context(), opts, c.OutOrStdout())
		},
	}
	flags := uniqualizeCmd.Flags()
	flags.StringVar(&opts.URL, "url", "", "Fetch the source photo from a URL")
	flags.StringVar(&opts.OutDir, "out", ".", "Directory to write variants to")
	flags.StringVar(&opts.Mode, "mode", "manual", "manual (same stages every time) or auto (random stages per variant)")
	flags.BoolVar(&opts.Params.Noise, "noise", false, "Add per-pixel noise")
	flags.BoolVar(&opts.Params.Stripes, "stripes", false, "Draw faint translucent stripes")
	flags.BoolVar(&opts.Params.Smiles, "smiles", false, "Overlay small emoji sprites")
	flags.BoolVar(&opts.Params.Background, "background", false, "Shift brightness, contrast and tint slightly")
	flags.IntVar(&opts.Params.BlurRadius, "blur", 0, "Gaussian blur radius (0-10)")
	flags.IntVar(&opts.Params.Count, "count", 0, "Number of variants (default 1, or 3-10 in auto mode)")
	flags.Uint64Var(&seed, "seed", 0, "Seed for reproducible output")
	flags.BoolVar(&opts.Preview, "preview", false, "Also write an animated preview.png cycling through the variants")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Debug logging")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(c *cobra.Command, _ []string) {
			c.Println(versioninfo.Short())
		},
	}

	rootCmd.AddCommand(apiServerCmd, uniqualizeCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
