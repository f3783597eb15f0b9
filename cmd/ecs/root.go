/*
Copyright © 2013-2026 the ECS Tools authors.
This file is part of ECS Tools.

ECS Tools is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ECS Tools is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ECS Tools.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command ecs is the command-line interface for the Conservation Site
// delineation and prioritization tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ecsconfig "github.com/natheritage/ecs/config"
)

var configFile string

// Cfg holds the configuration loaded by the root command's
// PersistentPreRunE, available to every subcommand.
var Cfg *ecsconfig.Config

var rootCmd = &cobra.Command{
	Use:   "ecs",
	Short: "Delineate and prioritize Essential Conservation Sites.",
	Long: `ecs delineates Conservation Sites from Procedural Features and
ranks their Element Occurrences to build an Essential Conservation
Sites portfolio. Use the subcommands below to run a delineation or a
prioritization pass.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		v := ecsconfig.New()
		if err := bindFlags(v, cmd); err != nil {
			return err
		}
		cfg, err := ecsconfig.Load(v, configFile)
		if err != nil {
			return err
		}
		Cfg = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "TOML configuration file location")
	rootCmd.AddCommand(versionCmd)
}

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ecs v%s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
