package domain

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentStart
	IntentAdvance
	IntentSkip        // payload: optional stage key
	IntentTemperature // payload: reading in °F
	IntentPause
	IntentResume
	IntentStatus
	IntentRepeat
	IntentAbandon
	IntentRate    // payload: rating 1-5
	IntentNote    // payload: free text
	IntentWorked  // payload: free text
	IntentImprove // payload: free text
	IntentSave    // finalize into history
	IntentQuit
	IntentHelp
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	switch i {
	case IntentStart:
		return "start"
	case IntentAdvance:
		return "advance"
	case IntentSkip:
		return "skip"
	case IntentTemperature:
		return "temperature"
	case IntentPause:
		return "pause"
	case IntentResume:
		return "resume"
	case IntentStatus:
		return "status"
	case IntentRepeat:
		return "repeat"
	case IntentAbandon:
		return "abandon"
	case IntentRate:
		return "rate"
	case IntentNote:
		return "note"
	case IntentWorked:
		return "worked"
	case IntentImprove:
		return "improve"
	case IntentSave:
		return "save"
	case IntentQuit:
		return "quit"
	case IntentHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Intent represents a parsed user action.
type Intent struct {
	Type    IntentType
	Payload string // optional context, e.g. stage key for skip
}
