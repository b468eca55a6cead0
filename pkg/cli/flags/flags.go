package flags

import (
	"errors"
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/spf13/cobra"
)

// TimingFlagName is the persistent root flag enabling per-stage timing output.
const TimingFlagName = "timing"

var (
	// ErrNilCommand is returned when no command is given.
	ErrNilCommand = errors.New("command is nil")
	// ErrTimingFlagNotFound is returned when neither the command nor a parent defines the timing flag.
	ErrTimingFlagNotFound = errors.New("timing flag not found")
)

// IsTimingEnabled reports whether --timing is set on cmd or inherited from a parent.
func IsTimingEnabled(cmd *cobra.Command) (bool, error) {
	if cmd == nil {
		return false, ErrNilCommand
	}

	flag := cmd.Flag(TimingFlagName)
	if flag == nil {
		return false, ErrTimingFlagNotFound
	}

	enabled, err := cmd.Flags().GetBool(TimingFlagName)
	if err != nil {
		// Inherited persistent flags are only merged into Flags() after parsing.
		enabled = flag.Value.String() == "true"
	}

	return enabled, nil
}

// MaybeTimer returns tmr when timing output is enabled and nil otherwise, so
// success messages only carry timings on request.
func MaybeTimer(cmd *cobra.Command, tmr timer.Timer) timer.Timer {
	if tmr == nil {
		return nil
	}

	enabled, err := IsTimingEnabled(cmd)
	if err != nil || !enabled {
		return nil
	}

	return tmr
}

// String returns a flag's value or an error naming the flag.
func String(cmd *cobra.Command, name string) (string, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("read --%s: %w", name, err)
	}

	return value, nil
}
