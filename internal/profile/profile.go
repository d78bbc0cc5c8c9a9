package profile

import (
	"fmt"
	"regexp"
)

// DefaultName is used when neither the flag nor the config names a profile.
const DefaultName = "main"

var nameRegexp = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName checks that name conforms to profile naming rules.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid profile name %q: must match ^[a-z0-9_-]{1,64}$", name)
	}
	return nil
}

// Resolve determines the active profile name using precedence:
// 1. flagOverride (--profile flag)
// 2. configDefault (config.toml default_profile)
// 3. "main"
func Resolve(flagOverride, configDefault string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if configDefault != "" {
		return configDefault
	}
	return DefaultName
}
