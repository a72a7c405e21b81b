package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kamoh/leftovers/internal/output"
	"github.com/kamoh/leftovers/pkg/config"
	"github.com/kamoh/leftovers/pkg/rules"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show the merged configuration",
				ArgsUsage: "[root]",
				Action:    runConfigShow,
			},
			{
				Name:      "validate",
				Usage:     "Validate the configuration and compile its rules",
				ArgsUsage: "[root]",
				Action:    runConfigValidate,
			},
			{
				Name:   "gems",
				Usage:  "List the rule packs available to gems:",
				Action: runConfigGems,
			},
		},
	}
}

func runConfigShow(c *cli.Context) error {
	cfg, err := config.Load(getRoot(c), c.String("config"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "# Configuration from: %s\n\n", strings.Join(cfg.Sources, ", "))
	content, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(content)
	return err
}

func runConfigValidate(c *cli.Context) error {
	f := output.NewWriterFormatter(output.FormatText, c.App.Writer, colored(c, c.App.Writer))

	path := c.String("config")
	if path == "" {
		path = config.Find(getRoot(c))
	}

	cfg, err := config.Load(getRoot(c), path)
	if err == nil {
		_, err = rules.Build(cfg)
	}
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if path != "" {
		f.Success("Configuration valid: %s", path)
	} else {
		f.Warning("No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigGems(c *cli.Context) error {
	for _, name := range config.Packs() {
		if name == "default" {
			continue
		}
		fmt.Fprintln(c.App.Writer, name)
	}
	return nil
}
