package session

import (
	"github.com/cyberarchives/BLF-Photon-Bot/pkg/protocol"
)

// Actor is one occupant of a joined room as enumerated by the game server.
type Actor struct {
	ActorNumber        int64   `json:"actorNumber"`
	DisplayName        string  `json:"displayName"`
	Rank               int32   `json:"rank"`
	KillDeathRatio     float64 `json:"killDeathRatio"`
	Team               int32   `json:"team"`
	KillstreakProgress int32   `json:"killstreakProgress"`
	Platform           string  `json:"platform"`
}

// actorFromProps builds an Actor from the nested property map the join
// response carries per occupant. Unknown keys are ignored; missing keys
// leave zero values.
func actorFromProps(number int64, props protocol.Map) Actor {
	a := Actor{ActorNumber: number}
	for _, entry := range props {
		key, ok := entry.Key.(protocol.Byte)
		if !ok {
			continue
		}
		switch byte(key) {
		case protocol.PropName:
			if s, ok := entry.Val.(protocol.String); ok {
				a.DisplayName = string(s)
			}
		case protocol.PropRank:
			if n, ok := protocol.AsInt64(entry.Val); ok {
				a.Rank = int32(n)
			}
		case protocol.PropKD:
			if f, ok := protocol.AsFloat64(entry.Val); ok {
				a.KillDeathRatio = f
			}
		case protocol.PropTeam:
			if n, ok := protocol.AsInt64(entry.Val); ok {
				a.Team = int32(n)
			}
		case protocol.PropKillstreak:
			if n, ok := protocol.AsInt64(entry.Val); ok {
				a.KillstreakProgress = int32(n)
			}
		case protocol.PropPlatform:
			if s, ok := entry.Val.(protocol.String); ok {
				a.Platform = string(s)
			}
		}
	}
	return a
}

// rosterFromJoinResponse rebuilds the full roster from a join response. The
// roster is replaced, never merged: the server's enumeration is the truth.
func rosterFromJoinResponse(p *protocol.Packet) []Actor {
	actors, ok := p.GetObjectArray(protocol.ParamActorList)
	if !ok {
		return nil
	}
	propsByActor, _ := p.GetMap(protocol.ParamPlayerProps)

	roster := make([]Actor, 0, len(actors))
	for _, v := range actors {
		number, ok := protocol.AsInt64(v)
		if !ok {
			continue
		}
		var props protocol.Map
		for _, entry := range propsByActor {
			if key, ok := protocol.AsInt64(entry.Key); ok && key == number {
				props, _ = entry.Val.(protocol.Map)
				break
			}
		}
		roster = append(roster, actorFromProps(number, props))
	}
	return roster
}
