// ABOUTME: Command interpreter shared by every control surface
// ABOUTME: "x" (any case) halts playback; anything else is echoed back as unrecognised
package control

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// HaltCommand stops playback
const HaltCommand = "x"

// Stopper is implemented by player.Session
type Stopper interface {
	Stop()
}

// Result is the outcome of one command
type Result struct {
	Reply  string
	Halted bool
}

// Interpreter turns command text into calls on a Stopper
type Interpreter struct {
	stopper   Stopper
	onMessage func(string)
}

// NewInterpreter creates an interpreter. onMessage, if set, receives every
// reply so it can be shown next to the session messages.
func NewInterpreter(stopper Stopper, onMessage func(string)) *Interpreter {
	return &Interpreter{stopper: stopper, onMessage: onMessage}
}

// Handle interprets one line of input. Blank lines produce an empty Result.
func (i *Interpreter) Handle(text string) Result {
	cmd := strings.TrimSpace(text)
	if cmd == "" {
		return Result{}
	}

	var res Result
	if strings.EqualFold(cmd, HaltCommand) {
		i.stopper.Stop()
		res = Result{Reply: "Command received: halt playback", Halted: true}
	} else {
		res = Result{Reply: fmt.Sprintf("Unrecognised command: %s", cmd)}
	}

	log.WithField("component", "control").Info(res.Reply)
	if i.onMessage != nil {
		i.onMessage(res.Reply)
	}
	return res
}
