// Package zander encodes and decodes the fixed-layout records exchanged with
// Zander GP940/SR940 flight instruments.
package zander

import (
	"errors"
	"fmt"

	"github.com/MaxKellermann/loggertools/internal/earth"
)

var (
	ErrRange  = earth.ErrRange
	ErrFormat = earth.ErrFormat
	// ErrCapacity reports a task that does not fit the device frame.
	ErrCapacity = errors.New("task exceeds frame capacity")
)

// Command is the single byte that starts every host request.
type Command byte

const (
	CmdWritePersonalData Command = 0x10
	CmdReadPersonalData  Command = 0x11
	CmdWriteTask         Command = 0x12
	CmdReadTask          Command = 0x13
)

func (c Command) String() string {
	switch c {
	case CmdWritePersonalData:
		return "WRITE_PERSONAL_DATA"
	case CmdReadPersonalData:
		return "READ_PERSONAL_DATA"
	case CmdWriteTask:
		return "WRITE_TASK"
	case CmdReadTask:
		return "READ_TASK"
	default:
		return fmt.Sprintf("CMD_0x%02X", byte(c))
	}
}

// PayloadSize is the number of bytes following c on the wire (request) and
// the size of the device's answer (response).
func (c Command) PayloadSize() (request, response int) {
	switch c {
	case CmdWritePersonalData:
		return PersonalDataSize, 0
	case CmdReadPersonalData:
		return 0, PersonalDataSize
	case CmdWriteTask:
		return TaskSize, 0
	case CmdReadTask:
		return 0, TaskSize
	default:
		return 0, 0
	}
}
