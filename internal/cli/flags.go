package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func InitConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Flags is the declarative flag table every command defines once at
// package level
type Flags []FlagData

// AddToCommand registers every flag in the table on `command`
func (f Flags) AddToCommand(command *cobra.Command, persistent ...bool) {
	for _, g := range f {
		g.AddToCommand(command, persistent...)
	}
}

// BindViper binds every flag in the table to viper, run this from
// the command's PreRun so commands sharing a flag name don't clobber
// each other's binding
func (f Flags) BindViper(command *cobra.Command, persistent ...bool) {
	for _, g := range f {
		g.BindViper(command, persistent...)
	}
}

// FlagData represents a logical flag; the `.Name` property doubles
// as the `viper` reference and is expected in kebab-case
type FlagData struct {
	Name         string
	Short        rune
	DefaultValue any
	Usage        string
	Type         FlagType
}

// FlagType restricts the flag value types to the ones the commands
// in this tool actually parse
type FlagType string

// AddToCommand adds the flag to the provided `command` instance,
// this should happen during `init()`. Panics on an unknown `.Type`
// since that is a programming error in the flag table
func (f *FlagData) AddToCommand(command *cobra.Command, persistent ...bool) {
	flags := f.flagSet(command, persistent...)
	switch f.Type {

	case FlagTypeBool:
		if f.Short != 0 {
			flags.BoolP(f.Name, string(f.Short), f.DefaultValue.(bool), f.Usage)
			break
		}
		flags.Bool(f.Name, f.DefaultValue.(bool), f.Usage)

	case FlagTypeDuration:
		if f.Short != 0 {
			flags.DurationP(f.Name, string(f.Short), f.DefaultValue.(time.Duration), f.Usage)
			break
		}
		flags.Duration(f.Name, f.DefaultValue.(time.Duration), f.Usage)

	case FlagTypeString:
		if f.Short != 0 {
			flags.StringP(f.Name, string(f.Short), f.DefaultValue.(string), f.Usage)
			break
		}
		flags.String(f.Name, f.DefaultValue.(string), f.Usage)

	case FlagTypeStringSlice:
		if f.Short != 0 {
			flags.StringSliceP(f.Name, string(f.Short), f.DefaultValue.([]string), f.Usage)
			break
		}
		flags.StringSlice(f.Name, f.DefaultValue.([]string), f.Usage)

	default:
		panic(fmt.Sprintf("unknown FlagType[%s]", f.Type))
	}
}

// BindViper binds the flag to viper under its `.Name`, do this in
// the `cobra.Command.PreRun` phase to avoid overwriting bindings
// made by other commands
func (f *FlagData) BindViper(command *cobra.Command, persistent ...bool) {
	flags := f.flagSet(command, persistent...)
	viper.BindPFlag(f.Name, flags.Lookup(f.Name))
	viper.BindEnv(f.Name)
}

func (f *FlagData) flagSet(command *cobra.Command, persistent ...bool) *pflag.FlagSet {
	if len(persistent) > 0 && persistent[0] {
		return command.PersistentFlags()
	}
	return command.Flags()
}
