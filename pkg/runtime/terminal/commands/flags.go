package commands

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bind maps settings keys onto flags so a flag given on the command line
// wins over environment and config file.
func bind(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}
