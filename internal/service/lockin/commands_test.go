package lockin

import "testing"

func TestMatchCommand(t *testing.T) {
	tests := []struct {
		text string
		want Command
	}{
		{"turn on lock in", CommandTurnOn},
		{"Turn On Lock In", CommandTurnOn},
		{"turn on lockin mode.", CommandTurnOn},
		{"TURN ON LOCK IN MODE", CommandTurnOn},
		{"turn   on  lock   in   mode", CommandTurnOn},
		{"  turn on lock in.  ", CommandTurnOn},
		{"Turn on lock in mode!", CommandTurnOn},
		{"turn off lock in", CommandTurnOff},
		{"Turn Off Lockin Mode.", CommandTurnOff},
		{"TURN OFF LOCK IN MODE", CommandTurnOff},
		{"turn off  lock in mode?", CommandTurnOff},

		{"", CommandNone},
		{"hello world", CommandNone},
		{"turn on", CommandNone},
		{"turn on lock", CommandNone},
		{"turnon lock in", CommandNone},
		{"please turn on lock in", CommandNone},
		{"turn on lock in mode now", CommandNone},
		{"turn on lock in modes", CommandNone},
		{"turn of lock in", CommandNone},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := MatchCommand(tt.text); got != tt.want {
				t.Errorf("MatchCommand(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
