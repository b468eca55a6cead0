package configmanager

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// flagValueSetter is an interface for types that can set their value from a string.
// This is typically implemented by enum types that satisfy pflag.Value.
type flagValueSetter interface {
	Set(value string) error
}

// AddFlagsFromFields registers one flag per field selector on cmd. Flag names
// are the kebab-cased JSON names of the selected fields.
func (m *ConfigManager) AddFlagsFromFields(cmd *cobra.Command) {
	flags := cmd.Flags()

	for _, selector := range m.fieldSelectors {
		fieldPtr := selector.Selector(m.Config)

		name := m.GenerateFlagName(fieldPtr)
		if name == "" || flags.Lookup(name) != nil {
			continue
		}

		addFlag(flags, name, fieldPtr, selector.DefaultValue, selector.Description)
	}
}

// GenerateFlagName returns the flag name of a field of the manager's Config.
func (m *ConfigManager) GenerateFlagName(fieldPtr any) string {
	path := fieldPath(reflect.ValueOf(m.Config).Elem(), fieldPtr)
	if len(path) == 0 {
		return ""
	}

	return toKebabCase(path[len(path)-1])
}

func addFlag(flags *pflag.FlagSet, name string, fieldPtr, defaultValue any, usage string) {
	switch ptr := fieldPtr.(type) {
	case *string:
		value, _ := defaultValue.(string)
		flags.String(name, value, usage)
	case *bool:
		value, _ := defaultValue.(bool)
		flags.Bool(name, value, usage)
	case *int32:
		value, _ := defaultValue.(int32)
		flags.Int32(name, value, usage)
	case *metav1.Duration:
		value, _ := defaultValue.(metav1.Duration)
		flags.Duration(name, value.Duration, usage)
	case pflag.Value:
		// Enums get their own storage so parsing a flag never touches a loaded config.
		value, ok := reflect.New(reflect.TypeOf(ptr).Elem()).Interface().(pflag.Value)
		if !ok {
			return
		}

		setFieldValue(value, defaultValue)

		if lister, ok := value.(interface{ ValidValues() []string }); ok {
			usage = fmt.Sprintf("%s (%s)", usage, strings.Join(lister.ValidValues(), ", "))
		}

		flags.Var(value, name, usage)
	}
}

// fieldPath returns the JSON path of the leaf field of root that fieldPtr points at.
func fieldPath(root reflect.Value, fieldPtr any) []string {
	target := reflect.ValueOf(fieldPtr)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return nil
	}

	return findLeaf(root, target, nil)
}

func findLeaf(value reflect.Value, target reflect.Value, prefix []string) []string {
	for i := range value.NumField() {
		field := value.Type().Field(i)
		if !field.IsExported() {
			continue
		}

		name, inline := jsonName(field)
		path := prefix

		if !inline {
			path = append(append([]string{}, prefix...), name)
		}

		fieldValue := value.Field(i)

		if isLeaf(field.Type) {
			if field.Type == target.Type().Elem() && fieldValue.Addr().Pointer() == target.Pointer() {
				return path
			}

			continue
		}

		if found := findLeaf(fieldValue, target, path); found != nil {
			return found
		}
	}

	return nil
}

// configKeys lists the dotted viper keys of every leaf field of t.
func configKeys(t reflect.Type, prefix string) []string {
	var keys []string

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, inline := jsonName(field)
		key := prefix

		if !inline {
			key = strings.TrimPrefix(prefix+"."+name, ".")
		}

		if isLeaf(field.Type) {
			keys = append(keys, key)

			continue
		}

		keys = append(keys, configKeys(field.Type, key)...)
	}

	return keys
}

func jsonName(field reflect.StructField) (string, bool) {
	name, options, _ := strings.Cut(field.Tag.Get("json"), ",")
	if field.Anonymous && (name == "" || strings.Contains(options, "inline")) {
		return "", true
	}

	if name == "" {
		name = field.Name
	}

	return name, false
}

func isLeaf(t reflect.Type) bool {
	return t.Kind() != reflect.Struct || t == reflect.TypeFor[metav1.Duration]()
}

func toKebabCase(name string) string {
	var builder strings.Builder

	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				builder.WriteByte('-')
			}

			r = unicode.ToLower(r)
		}

		builder.WriteRune(r)
	}

	return builder.String()
}

func metav1DurationDecodeHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeFor[metav1.Duration]() {
			return data, nil
		}

		switch value := data.(type) {
		case string:
			if value == "" {
				return metav1.Duration{}, nil
			}

			duration, err := time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("parse duration %q: %w", value, err)
			}

			return metav1.Duration{Duration: duration}, nil
		case time.Duration:
			return metav1.Duration{Duration: value}, nil
		default:
			return data, nil
		}
	}
}

// isFieldEmpty checks if a field pointer points to an empty/zero value.
func isFieldEmpty(fieldPtr any) bool {
	if fieldPtr == nil {
		return true
	}

	fieldVal := reflect.ValueOf(fieldPtr)
	if fieldVal.Kind() != reflect.Pointer || fieldVal.IsNil() {
		return true
	}

	return fieldVal.Elem().IsZero()
}

// setFieldValue assigns value to the field fieldPtr points at when the types fit.
func setFieldValue(fieldPtr, value any) {
	if value == nil {
		return
	}

	target := reflect.ValueOf(fieldPtr)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return
	}

	source := reflect.ValueOf(value)
	elem := target.Elem()

	switch {
	case source.Type().AssignableTo(elem.Type()):
		elem.Set(source)
	case source.Type().ConvertibleTo(elem.Type()):
		elem.Set(source.Convert(elem.Type()))
	}
}

// setFieldValueFromFlag sets a field's value from a flag string representation.
// It dispatches based on the field's concrete type.
func setFieldValueFromFlag(fieldPtr any, raw string) error {
	if setter, ok := fieldPtr.(flagValueSetter); ok {
		err := setter.Set(raw)
		if err != nil {
			return fmt.Errorf("set flag value: %w", err)
		}

		return nil
	}

	switch ptr := fieldPtr.(type) {
	case *string:
		*ptr = raw

		return nil
	case *metav1.Duration:
		return setDurationFromFlag(ptr, raw)
	case *bool:
		return setBoolFromFlag(ptr, raw)
	case *int32:
		return setInt32FromFlag(ptr, raw)
	default:
		return nil
	}
}

func setDurationFromFlag(target *metav1.Duration, raw string) error {
	if raw == "" {
		target.Duration = 0

		return nil
	}

	duration, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}

	target.Duration = duration

	return nil
}

func setBoolFromFlag(target *bool, raw string) error {
	if raw == "" {
		*target = false

		return nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("parse bool %q: %w", raw, err)
	}

	*target = value

	return nil
}

func setInt32FromFlag(target *int32, raw string) error {
	if raw == "" {
		*target = 0

		return nil
	}

	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fmt.Errorf("parse int32 %q: %w", raw, err)
	}

	*target = int32(value)

	return nil
}
