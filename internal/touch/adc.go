package touch

import (
	"fmt"

	"periph.io/x/conn/v3/analog"
)

// ADCSampler reads sense pins through periph analog inputs, keyed by the pin
// id used in Config.Pin.
type ADCSampler struct {
	Pins map[int]analog.PinADC
}

func (a *ADCSampler) Read(pin int) (uint32, error) {
	p, ok := a.Pins[pin]
	if !ok {
		return 0, fmt.Errorf("no analog input for sense pin %d", pin)
	}
	s, err := p.Read()
	if err != nil {
		return 0, err
	}
	if s.Raw < 0 {
		return 0, nil
	}
	return uint32(s.Raw), nil
}
