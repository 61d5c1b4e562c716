// internal/status/constants.go
package status

// Register layout of the status and position blocks written to target
// memory. Consumers decode these fixed offsets; none of it is configurable.

// Status block: one per unit, placed at status_slot * SlotsPerDevice.
const (
	SlotsPerDevice = 20

	SlotHealthCode         = 0
	SlotLastErrorCode      = 1
	SlotSecondsInError     = 2 // 1 Hz, saturating
	SlotInvalidTransitions = 3 // saturating

	// 4-10 unused, written as zero

	SlotDeviceNameStart = 11
	SlotDeviceNameSlots = 8
	SlotDeviceNameEnd   = SlotDeviceNameStart + SlotDeviceNameSlots - 1

	DeviceNameMaxChars = 2 * SlotDeviceNameSlots
)

// Health codes (SlotHealthCode).
const (
	HealthUnknown uint16 = 0 // boot, no poll result yet
	HealthOK      uint16 = 1
	HealthError   uint16 = 2
)

// Error codes (SlotLastErrorCode).
const (
	CodeOK                uint16 = 0
	CodeGeneric           uint16 = 1
	CodeClockPin          uint16 = 2
	CodeDataPin           uint16 = 3
	CodeIndexPin          uint16 = 4
	CodeInvalidTransition uint16 = 5
)

// Position block: written at each target's address. 32-bit values are
// big-endian, high word first.
const (
	PositionBlockRegisters = 9

	RegPosition    = 0 // int32
	RegForward     = 2 // uint32, cumulative positive movements
	RegBackward    = 4 // uint32, cumulative negative movements
	RegIndexPulses = 6 // uint32
	RegRawState    = 8 // idx<<2 | clk<<1 | dt
)
