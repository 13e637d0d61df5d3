package intake

import (
	"fmt"
	"math/rand"
)

// Acknowledgements rotate for variety; repeats are allowed.
var Acknowledgements = []string{
	"Got it, thank you.",
	"Thanks, noted.",
	"Understood.",
	"Great, that helps.",
	"Perfect, thanks.",
}

// IntN returns a value in [0, n). The machine uses it to pick acknowledgements.
type IntN func(n int) int

func identityAck(answer string) string {
	return fmt.Sprintf("Nice to meet you, %s.", answer)
}

func (m *Machine) acknowledge(f Field, answer string) string {
	if f.Identity {
		return identityAck(answer)
	}
	pick := m.intn
	if pick == nil {
		pick = rand.Intn
	}
	return Acknowledgements[pick(len(Acknowledgements))]
}
