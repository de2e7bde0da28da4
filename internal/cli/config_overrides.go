package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// applyConfigFlagOverrides copies flags the user set onto their config keys.
func applyConfigFlagOverrides(cmd *cobra.Command, v *viper.Viper, flagToKey map[string]string) {
	for flagName, key := range flagToKey {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil || !flag.Changed {
			continue
		}
		setFromFlag(cmd, v, flagName, key)
	}
}

func setFromFlag(cmd *cobra.Command, v *viper.Viper, flagName, key string) {
	switch cmd.Flags().Lookup(flagName).Value.Type() {
	case "bool":
		if val, err := cmd.Flags().GetBool(flagName); err == nil {
			v.Set(key, val)
		}
	case "int":
		if val, err := cmd.Flags().GetInt(flagName); err == nil {
			v.Set(key, val)
		}
	case "stringSlice":
		if val, err := cmd.Flags().GetStringSlice(flagName); err == nil {
			v.Set(key, val)
		}
	default:
		if val, err := cmd.Flags().GetString(flagName); err == nil {
			v.Set(key, val)
		}
	}
}
