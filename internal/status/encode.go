// internal/status/encode.go
package status

// Encode converts a Snapshot into a full device status block with the
// given name packed into the trailing slots.
func Encode(s Snapshot, name string) []uint16 {
	regs := make([]uint16, SlotsPerDevice)
	copy(regs, s.Slots())
	copy(regs[SlotDeviceNameStart:], EncodeDeviceName(name))
	return regs
}

// Slots returns the live slots, SlotHealthCode through SlotInvalidTransitions.
func (s Snapshot) Slots() []uint16 {
	return []uint16{
		SlotHealthCode:         s.Health,
		SlotLastErrorCode:      s.LastErrorCode,
		SlotSecondsInError:     s.SecondsInError,
		SlotInvalidTransitions: s.InvalidTransitions,
	}
}

// EncodeDeviceName packs up to DeviceNameMaxChars characters two per
// register, first character in the high byte. Non-printable bytes become '?'.
func EncodeDeviceName(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)
	if len(name) > DeviceNameMaxChars {
		name = name[:DeviceNameMaxChars]
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x20 || c > 0x7E {
			c = '?'
		}
		if i%2 == 0 {
			out[i/2] |= uint16(c) << 8
		} else {
			out[i/2] |= uint16(c)
		}
	}
	return out
}

// EncodePosition converts a Position into a position block.
func EncodePosition(p Position) []uint16 {
	regs := make([]uint16, PositionBlockRegisters)

	putUint32(regs[RegPosition:], uint32(p.Value))
	putUint32(regs[RegForward:], p.Forward)
	putUint32(regs[RegBackward:], p.Backward)
	putUint32(regs[RegIndexPulses:], p.IndexPulses)
	regs[RegRawState] = uint16(p.RawState)

	return regs
}

// DecodePosition is the inverse of EncodePosition.
func DecodePosition(regs []uint16) (Position, bool) {
	if len(regs) < PositionBlockRegisters {
		return Position{}, false
	}
	return Position{
		Value:       int32(getUint32(regs[RegPosition:])),
		Forward:     getUint32(regs[RegForward:]),
		Backward:    getUint32(regs[RegBackward:]),
		IndexPulses: getUint32(regs[RegIndexPulses:]),
		RawState:    uint8(regs[RegRawState]),
	}, true
}

// high word first
func putUint32(dst []uint16, v uint32) {
	dst[0] = uint16(v >> 16)
	dst[1] = uint16(v)
}

func getUint32(src []uint16) uint32 {
	return uint32(src[0])<<16 | uint32(src[1])
}
