// Package configmanager loads rollctl's configuration with viper and binds its
// fields to cobra flags.
package configmanager
