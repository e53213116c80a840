package ack

/*------------------------------------------------------------------
 *
 * Purpose:	Optional GPIO completion indicator (C6, spec §6 EXPANSION).
 *
 * Description:	Drives a single GPIO line high for the duration of the
 *		acknowledgement burst, so a board without a screen can
 *		show a provisioning LED. Entirely optional: a nil
 *		*Indicator is a valid no-op, the same pattern the
 *		teacher's portaudio/gpio-adjacent code uses for absent
 *		peripherals. Exercises github.com/warthog618/go-gpiocdev,
 *		declared in the teacher's go.mod but never imported there.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Indicator drives a GPIO line to signal provisioning completion.
type Indicator struct {
	line *gpiocdev.Line
}

// NewIndicator requests chip/line as an output, initially low. A blank
// chip disables the indicator: Indicator's methods become no-ops.
func NewIndicator(chip string, line int) (*Indicator, error) {
	if chip == "" {
		return nil, nil
	}

	l, err := gpiocdev.RequestLine(chip, line, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("ack: request gpio line %s:%d: %w", chip, line, err)
	}
	return &Indicator{line: l}, nil
}

// On drives the line high. A nil Indicator is a no-op.
func (i *Indicator) On() error {
	if i == nil {
		return nil
	}
	return i.line.SetValue(1)
}

// Off drives the line low. A nil Indicator is a no-op.
func (i *Indicator) Off() error {
	if i == nil {
		return nil
	}
	return i.line.SetValue(0)
}

// Close releases the GPIO line. A nil Indicator is a no-op.
func (i *Indicator) Close() error {
	if i == nil {
		return nil
	}
	return i.line.Close()
}
