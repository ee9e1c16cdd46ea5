package cache

import "strings"

// EditorState is the lifecycle of one cell's local edit.
//
//	Clean        -> PendingLocal  user edit; optimistic value applied, timer armed
//	PendingLocal -> PendingLocal  user edit; timer re-armed
//	PendingLocal -> Persisting    timer fired; write sent
//	Persisting   -> Clean         server ack
//	Persisting   -> PendingLocal  user edit while the write is in flight
//	Persisting   -> RollingBack   server error; snapshot restored, table invalidated
//	RollingBack  -> Clean         OnError returned
//	RollingBack  -> PendingLocal  user edit before OnError returned
type EditorState int

// Editor states.
const (
	Clean EditorState = iota
	PendingLocal
	Persisting
	RollingBack
)

func (s EditorState) String() string {
	switch s {
	case Clean:
		return "clean"
	case PendingLocal:
		return "pending_local"
	case Persisting:
		return "persisting"
	case RollingBack:
		return "rolling_back"
	default:
		return "unknown"
	}
}

// SanitizeNumericInput keeps the characters a NUMBER cell accepts while
// typing: digits, one leading minus sign and one decimal point.
func SanitizeNumericInput(s string) string {
	var sb strings.Builder
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '-' && sb.Len() == 0:
			sb.WriteRune(r)
		case r == '.' && !dot:
			dot = true
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
