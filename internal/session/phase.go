package session

// Phase is the session's position in the connect/auth/join state machine.
// The sequence is linear; InRoom persists until an explicit leave resets the
// machine to Idle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLobbyConnecting
	PhaseLobbyHandshaking
	PhaseLobbyAuthenticated
	PhaseAwaitingGameAddress
	PhaseGameConnecting
	PhaseGameHandshaking
	PhaseGameAuthenticated
	PhaseJoiningRoom
	PhaseInRoom
)

// String returns the phase name used in logs and API responses.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLobbyConnecting:
		return "lobby_connecting"
	case PhaseLobbyHandshaking:
		return "lobby_handshaking"
	case PhaseLobbyAuthenticated:
		return "lobby_authenticated"
	case PhaseAwaitingGameAddress:
		return "awaiting_game_address"
	case PhaseGameConnecting:
		return "game_connecting"
	case PhaseGameHandshaking:
		return "game_handshaking"
	case PhaseGameAuthenticated:
		return "game_authenticated"
	case PhaseJoiningRoom:
		return "joining_room"
	case PhaseInRoom:
		return "in_room"
	default:
		return "unknown"
	}
}
