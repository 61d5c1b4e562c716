// internal/status/errors.go
package status

import (
	"errors"

	"github.com/tamzrod/quadrature-replicator/internal/decoder"
	"github.com/tamzrod/quadrature-replicator/internal/pin"
)

// ErrorCode maps a poll error to the code published in SlotLastErrorCode.
// Errors exposing Code() uint16 pass their code through; anything else
// unknown is CodeGeneric.
func ErrorCode(err error) uint16 {
	if err == nil {
		return CodeOK
	}

	var pe *pin.Error
	if errors.As(err, &pe) {
		switch pe.Channel {
		case pin.Clock:
			return CodeClockPin
		case pin.Data:
			return CodeDataPin
		case pin.Index:
			return CodeIndexPin
		}
	}
	if errors.Is(err, decoder.ErrInvalidTransition) {
		return CodeInvalidTransition
	}

	type coder interface{ Code() uint16 }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return CodeGeneric
}
