// Package logging builds the structured logrus logger used by the controller
// and bridges it to the logr interface expected by controller-runtime and
// client-go.
package logging
