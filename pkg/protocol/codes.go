package protocol

// Operation codes carried by Request/Response packets.
const (
	OpPing         byte = 1   // liveness probe, no response expected
	OpJoinGame     byte = 226 // join a room on the game server
	OpAuthenticate byte = 230 // authenticate against lobby or game server
	OpRaiseEvent   byte = 253 // broadcast a custom event into the room
	OpLeave        byte = 254 // leave the current room
)

// Event codes carried by Event packets.
const (
	EvSpawn         byte = 42  // positional/state broadcast
	EvChat          byte = 70  // room chat line
	EvJoinNotify    byte = 71  // client-side announcement after joining
	EvAuthCode      byte = 75  // external auth code relayed into the room
	EvStatus        byte = 88  // periodic client status
	EvAppStats      byte = 226 // lobby statistics, carries game server address
	EvJoin          byte = 255 // actor joined, carries assigned actor number
	EvHandshakeInit byte = 255 // first inbound packet on a fresh channel
)

// Parameter codes. One byte each; unique within a packet.
const (
	ParamEventCode   byte = 204
	ParamNonce       byte = 219
	ParamAppVersion  byte = 220
	ParamToken       byte = 221
	ParamRoomList    byte = 222
	ParamAppID       byte = 224
	ParamAddress     byte = 230
	ParamData        byte = 244
	ParamFollowUp    byte = 245
	ParamProps       byte = 248
	ParamPlayerProps byte = 249
	ParamBroadcast   byte = 250
	ParamActorList   byte = 252
	ParamReturnCode  byte = 253
	ParamActorNr     byte = 254
	ParamRoomName    byte = 255
)

// Well-known keys inside an actor's property map.
const (
	PropName       byte = 1
	PropRank       byte = 2
	PropKD         byte = 3
	PropTeam       byte = 4
	PropKillstreak byte = 5
	PropPlatform   byte = 6
)
