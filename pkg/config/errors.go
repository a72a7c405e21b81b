package config

import "fmt"

// ConfigurationError reports an invalid configuration value. Path locates
// the value in the merged document, e.g. "dynamic[3].has_argument.at".
type ConfigurationError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ConfigurationError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Path == "" {
		return "config: " + msg
	}
	return fmt.Sprintf("config: %s: %s", e.Path, msg)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Errorf builds a ConfigurationError for the value at path.
func Errorf(path, format string, args ...any) error {
	return &ConfigurationError{Path: path, Msg: fmt.Sprintf(format, args...)}
}
