package lockin

import (
	"regexp"
	"strings"
)

// Command — распознанная голосовая команда.
type Command int

const (
	CommandNone Command = iota
	CommandTurnOn
	CommandTurnOff
)

func (c Command) String() string {
	switch c {
	case CommandTurnOn:
		return "turn_on"
	case CommandTurnOff:
		return "turn_off"
	default:
		return "none"
	}
}

// Вся фраза целиком: «turn on lock in», «turn on lockin mode.» и т.п.
var (
	turnOnRe  = regexp.MustCompile(`(?i)^\s*turn\s+on\s+lock\s*in(?:\s+mode)?\s*[.!?]*\s*$`)
	turnOffRe = regexp.MustCompile(`(?i)^\s*turn\s+off\s+lock\s*in(?:\s+mode)?\s*[.!?]*\s*$`)
)

// MatchCommand проверяет текст транскрипции на голосовые команды.
func MatchCommand(text string) Command {
	lower := strings.ToLower(text)
	switch {
	case turnOnRe.MatchString(lower):
		return CommandTurnOn
	case turnOffRe.MatchString(lower):
		return CommandTurnOff
	default:
		return CommandNone
	}
}
