package rules

import "fmt"

// ConfigError reports an invalid configuration key. It aborts a weaving run
// before any type is touched.
type ConfigError struct {
	Key      string // configuration key, e.g. "StopWordForMethodName"
	Fragment string // offending fragment or template, if any
	Reason   string
	Err      error // underlying regex error, if any
}

func (e *ConfigError) Error() string {
	msg := "invalid " + e.Key
	if e.Fragment != "" {
		msg += fmt.Sprintf(" %q", e.Fragment)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
