// internal/config/config.go
package config

type Config struct {
	Encoders EncodersConfig `yaml:"encoders"`
}

type EncodersConfig struct {
	Units []UnitConfig `yaml:"units"`
}

// ---- UNIT ----

type UnitConfig struct {
	ID      string         `yaml:"id"`
	Source  SourceConfig   `yaml:"source"`
	Pins    PinsConfig     `yaml:"pins"`
	Encoder EncoderConfig  `yaml:"encoder"`
	Poll    PollConfig     `yaml:"poll"`
	Targets []TargetConfig `yaml:"targets"`
}

// Indexed reports whether the unit has an index (home) line.
func (u UnitConfig) Indexed() bool { return u.Pins.Index != "" }

// ---- SOURCE ----

// Source kinds.
const (
	SourcePeriph = "periph"
	SourceCdev   = "cdev"
	SourceModbus = "modbus"
	SourceSim    = "sim"
)

type SourceConfig struct {
	Kind string `yaml:"kind"`

	// cdev
	Chip string `yaml:"chip"`

	// periph, cdev
	Pull       string `yaml:"pull"`
	DebounceUs int    `yaml:"debounce_us"`

	// modbus (remote I/O)
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	FC        uint8  `yaml:"fc"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// Device status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	DeviceName string  `yaml:"device_name"`
}

// ---- PINS ----

// PinsConfig names the lines. The meaning depends on the source kind:
// a periph GPIO name, a cdev line offset, a Modbus bit address.
type PinsConfig struct {
	Clock string `yaml:"clock"`
	Data  string `yaml:"data"`
	Index string `yaml:"index"` // optional
}

// ---- ENCODER ----

// Encoder modes.
const (
	ModeRotary = "rotary"
	ModeLinear = "linear"
)

// Counter types.
const (
	CounterInt16 = "int16"
	CounterInt32 = "int32"
)

type EncoderConfig struct {
	Mode     string `yaml:"mode"`
	StepMode string `yaml:"step_mode"`
	Reversed bool   `yaml:"reversed"`
	Counter  string `yaml:"counter"`
}

// ---- POLL ----

// Poll models.
const (
	ModelBlocking = "blocking"
	ModelEvent    = "event"
)

type PollConfig struct {
	Model string `yaml:"model"`
	// IntervalMs is the sampling period (blocking) or retry delay after
	// a failed wait (event).
	IntervalMs int `yaml:"interval_ms"`
}

// ---- TARGET ----

type TargetConfig struct {
	Endpoint     string `yaml:"endpoint"`
	UnitID       uint8  `yaml:"unit_id"`        // data memory
	Address      uint16 `yaml:"address"`        // first register of the position block
	StatusUnitID *uint8 `yaml:"status_unit_id"` // per-target status memory (optional)
}
