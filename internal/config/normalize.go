// internal/config/normalize.go
package config

import "github.com/tamzrod/quadrature-replicator/internal/status"

// Defaults applied by Normalize.
const (
	DefaultIntervalMs = 5
	DefaultTimeoutMs  = 1000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	for ui := range cfg.Encoders.Units {
		u := &cfg.Encoders.Units[ui]

		if u.Encoder.Mode == "" {
			u.Encoder.Mode = ModeRotary
		}
		if u.Encoder.StepMode == "" {
			u.Encoder.StepMode = "full"
		}
		if u.Encoder.Counter == "" {
			u.Encoder.Counter = CounterInt32
		}

		if u.Poll.Model == "" {
			u.Poll.Model = ModelBlocking
		}
		if u.Poll.IntervalMs == 0 {
			u.Poll.IntervalMs = DefaultIntervalMs
		}

		// also used for target connections
		if u.Source.TimeoutMs == 0 {
			u.Source.TimeoutMs = DefaultTimeoutMs
		}
		if u.Source.Kind == SourceModbus && u.Source.FC == 0 {
			u.Source.FC = 2
		}

		// device_name: ASCII already validated, truncate
		if len(u.Source.DeviceName) > status.DeviceNameMaxChars {
			u.Source.DeviceName = u.Source.DeviceName[:status.DeviceNameMaxChars]
		}
	}
}
