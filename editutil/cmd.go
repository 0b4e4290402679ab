/*
Copyright © 2021 the VectorEdit authors.
This file is part of VectorEdit.

VectorEdit is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

VectorEdit is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with VectorEdit.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package editutil holds commands for driving VectorEdit from the
// command line: replaying scripted touch gestures against a set of
// shapes and inspecting the overlay handles an element would get.
package editutil

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialkit/vectoredit"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to VectorEdit.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "loglevel",
			usage: `
              loglevel sets the verbosity of log output. Valid values are
              panic, fatal, error, warn, info, debug, and trace.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "script",
			usage: `
              script specifies the location of the TOML gesture script
              to replay.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{replayCmd.Flags()},
		},
		{
			name: "shapes",
			usage: `
              shapes specifies the location of the file holding the
              elements to edit. Files ending in '.shp' are read as
              shapefiles; anything else is read as GeoJSON.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{replayCmd.Flags(), handlesCmd.Flags()},
		},
		{
			name: "out",
			usage: `
              out specifies where to write the edited elements as GeoJSON.
              The default writes to standard output.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{replayCmd.Flags()},
		},
		{
			name: "proj",
			usage: `
              proj specifies the spatial reference of the shape coordinates.
              Valid values are EPSG:3857, EPSG:4326, or a proj4 string.`,
			defaultVal: "EPSG:3857",
			flagsets:   []*pflag.FlagSet{replayCmd.Flags(), handlesCmd.Flags()},
		},
		{
			name: "select",
			usage: `
              select specifies the index of the element to select before
              replaying, overriding the script's select block. The default
              of -1 leaves the choice to the script.`,
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{replayCmd.Flags()},
		},
		{
			name: "tolerance",
			usage: `
              tolerance specifies the hit test tolerance around element
              bodies in pixels.`,
			defaultVal: 8.0,
			flagsets:   []*pflag.FlagSet{replayCmd.Flags()},
		},
		{
			name: "results",
			usage: `
              results overrides the script's edit policy with a fixed
              sequence of drag results, one per drag callback, in order.
              Valid values are ignore, stop, modify, and delete.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{replayCmd.Flags()},
		},
		{
			name: "strict",
			usage: `
              strict makes the replay fail when a scripted gesture is not
              consumed by the editing layer.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{replayCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("VECTOREDIT")

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(replayCmd)
	Root.AddCommand(handlesCmd)
}

// setConfig finds and reads in the configuration file, if there is
// one, and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("vectoredit: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("loglevel"))
	if err != nil {
		return fmt.Errorf("vectoredit: problem parsing log level: %v", err)
	}
	logrus.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "vectoredit",
	Short: "An interactive vector geometry editor.",
	Long: `VectorEdit is an editing layer for vector map geometry: selecting an
element puts draggable handles over its vertices and segment midpoints, and
touch gestures then move vertices, insert new ones, delete them, or drag
whole shapes. Use the subcommands specified below to replay scripted gestures
against a set of shapes and to inspect the handles an element would get.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'VECTOREDIT_var' where 'var' is the name of the variable to be set. Refer to
https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of VectorEdit.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("VectorEdit v%s\n", vectoredit.Version)
	},
	DisableAutoGenTag: true,
}

// replayCmd is a command that replays a scripted gesture sequence
// against a set of shapes.
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay scripted gestures against a set of shapes.",
	Long: `replay loads the elements in --shapes, selects one of them, and feeds
the touch gestures in --script through the editing layer, mediating every
edit with the policy the script describes. The edited elements are written
out as GeoJSON when the replay finishes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		selectIndex, err := cast.ToIntE(Cfg.Get("select"))
		if err != nil {
			return fmt.Errorf("vectoredit: reading replay 'select': %v", err)
		}
		return Replay(
			cmd.OutOrStdout(),
			os.ExpandEnv(Cfg.GetString("script")),
			os.ExpandEnv(Cfg.GetString("shapes")),
			os.ExpandEnv(Cfg.GetString("out")),
			Cfg.GetString("proj"),
			selectIndex,
			Cfg.GetFloat64("tolerance"),
			Cfg.GetStringSlice("results"),
			Cfg.GetBool("strict"))
	},
	DisableAutoGenTag: true,
}

// handlesCmd is a command that lists the overlay handles each
// element would get when selected.
var handlesCmd = &cobra.Command{
	Use:   "handles",
	Short: "List the overlay handles of each element.",
	Long: `handles loads the elements in --shapes and prints, for each one, the
flat index, kind, and position of every overlay handle it would get when
selected for editing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Handles(
			cmd.OutOrStdout(),
			os.ExpandEnv(Cfg.GetString("shapes")),
			Cfg.GetString("proj"))
	},
	DisableAutoGenTag: true,
}
