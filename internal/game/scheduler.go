package game

// ActionKind is the class of action a tick performs.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionSense
	ActionMove
	ActionDetect
)

func (a ActionKind) String() string {
	switch a {
	case ActionSense:
		return "sense"
	case ActionMove:
		return "move"
	case ActionDetect:
		return "detect"
	default:
		return "none"
	}
}

// detectEvery is the tracking cadence: one detection, then two moves.
const detectEvery = 3

// LocalizationAction picks the action for localization tick n: sense on even
// ticks, move on odd ones.
func LocalizationAction(n int) ActionKind {
	if n%2 == 0 {
		return ActionSense
	}
	return ActionMove
}

// TrackingAction picks the action for tracking tick n. Tick 0 detects.
func TrackingAction(n int) ActionKind {
	if n%detectEvery == 0 {
		return ActionDetect
	}
	return ActionMove
}
