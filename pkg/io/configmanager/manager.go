package configmanager

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config sources.
const (
	// EnvPrefix prefixes environment overrides, e.g. ROLLCTL_CONNECTION_KUBECONFIG.
	EnvPrefix = "ROLLCTL"
	// ConfigName is the config file name without extension.
	ConfigName = "rollctl"
	// ConfigFlag names the persistent flag pointing at an explicit config file.
	ConfigFlag = "config"
)

// ErrInvalidConfig is returned when the loaded configuration does not validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigManager loads Config from defaults, rollctl.yaml, the environment and flags.
type ConfigManager struct {
	Viper          *viper.Viper
	fieldSelectors []FieldSelector[Config]
	Config         *Config
	configLoaded   bool
	Writer         io.Writer
	command        *cobra.Command
}

// InitializeViper returns a viper instance reading rollctl.yaml from the working
// directory or $HOME/.config/rollctl and ROLLCTL_* environment variables.
func InitializeViper() *viper.Viper {
	viperInstance := viper.New()
	viperInstance.SetConfigName(ConfigName)
	viperInstance.SetConfigType("yaml")
	viperInstance.AddConfigPath(".")
	viperInstance.AddConfigPath("$HOME/.config/rollctl")
	viperInstance.SetEnvPrefix(EnvPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	// Unmarshal only sees environment values for keys viper knows about.
	for _, key := range configKeys(reflect.TypeFor[Config](), "") {
		_ = viperInstance.BindEnv(key)
	}

	return viperInstance
}

// NewConfigManager creates a new configuration manager with the specified field selectors.
func NewConfigManager(writer io.Writer, fieldSelectors ...FieldSelector[Config]) *ConfigManager {
	return &ConfigManager{
		Viper:          InitializeViper(),
		fieldSelectors: fieldSelectors,
		Config:         NewConfig(),
		Writer:         writer,
	}
}

// NewCommandConfigManager constructs a ConfigManager bound to the provided Cobra command.
// It registers the supplied field selectors, binds flags from struct fields, and writes output
// to the command's standard output writer.
func NewCommandConfigManager(cmd *cobra.Command, selectors []FieldSelector[Config]) *ConfigManager {
	manager := NewConfigManager(cmd.OutOrStdout(), selectors...)
	manager.command = cmd
	manager.AddFlagsFromFields(cmd)

	return manager
}

// LoadConfig loads the configuration. Priority: defaults < config file <
// environment variables < flags. The timer, when given, is reported with the
// success message.
func (m *ConfigManager) LoadConfig(tmr timer.Timer) (*Config, error) {
	return m.loadConfig(tmr, false)
}

// LoadConfigSilent loads the configuration without outputting notifications.
func (m *ConfigManager) LoadConfigSilent() (*Config, error) {
	return m.loadConfig(nil, true)
}

func (m *ConfigManager) loadConfig(tmr timer.Timer, silent bool) (*Config, error) {
	if m.configLoaded {
		return m.Config, nil
	}

	if !silent {
		m.notify(notify.TitleType, "Load config...", "⏳")
		m.notify(notify.ActivityType, "loading rollctl config", "")
	}

	err := m.readConfig(silent)
	if err != nil {
		return nil, err
	}

	err = m.unmarshalAndApplyDefaults()
	if err != nil {
		return nil, err
	}

	err = m.applyFlagOverrides(m.captureChangedFlagValues())
	if err != nil {
		return nil, err
	}

	m.Config.ExpandEnv()

	err = m.Config.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if !silent {
		notify.WriteMessage(notify.Message{
			Type:    notify.SuccessType,
			Content: "config loaded",
			Timer:   tmr,
			Writer:  m.Writer,
		})
	}

	m.configLoaded = true

	return m.Config, nil
}

func (m *ConfigManager) readConfig(silent bool) error {
	if m.command != nil {
		if flag := m.command.Flag(ConfigFlag); flag != nil && flag.Value.String() != "" {
			m.Viper.SetConfigFile(flag.Value.String())
		}
	}

	err := m.Viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config file: %w", err)
		}

		if !silent {
			m.notify(notify.ActivityType, "using default config", "")
		}

		return nil
	}

	if !silent {
		notify.WriteMessage(notify.Message{
			Type:    notify.ActivityType,
			Content: "'%s' found",
			Args:    []any{m.Viper.ConfigFileUsed()},
			Writer:  m.Writer,
		})
	}

	return nil
}

func (m *ConfigManager) unmarshalAndApplyDefaults() error {
	decoderConfig := func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
		dc.Squash = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			metav1DurationDecodeHook(),
			mapstructure.StringToTimeDurationHookFunc(),
		)
	}

	err := m.Viper.Unmarshal(m.Config, decoderConfig)
	if err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	for _, fieldSelector := range m.fieldSelectors {
		fieldPtr := fieldSelector.Selector(m.Config)
		if fieldPtr != nil && isFieldEmpty(fieldPtr) {
			setFieldValue(fieldPtr, fieldSelector.DefaultValue)
		}
	}

	return nil
}

func (m *ConfigManager) captureChangedFlagValues() map[string]string {
	if m.command == nil {
		return nil
	}

	overrides := make(map[string]string)

	m.command.Flags().Visit(func(f *pflag.Flag) {
		overrides[f.Name] = f.Value.String()
	})

	return overrides
}

func (m *ConfigManager) applyFlagOverrides(overrides map[string]string) error {
	if overrides == nil {
		return nil
	}

	for _, selector := range m.fieldSelectors {
		fieldPtr := selector.Selector(m.Config)
		if fieldPtr == nil {
			continue
		}

		flagName := m.GenerateFlagName(fieldPtr)

		value, ok := overrides[flagName]
		if !ok {
			continue
		}

		err := setFieldValueFromFlag(fieldPtr, value)
		if err != nil {
			return fmt.Errorf("failed to apply flag override for %s: %w", flagName, err)
		}
	}

	return nil
}

func (m *ConfigManager) notify(msgType notify.MessageType, content, emoji string) {
	notify.WriteMessage(notify.Message{
		Type:    msgType,
		Content: content,
		Emoji:   emoji,
		Writer:  m.Writer,
	})
}
