package hotpotato

import (
	"context"
	"time"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/platform"
)

// Player is one user's state within a game. Players are created lazily on
// first interaction and live until the game is deleted.
type Player struct {
	User   platform.User
	Score  int
	Throws int
}

func (p *Player) Serialize() codec.Document {
	return codec.Document{
		"id":     p.User.ID,
		"name":   p.User.Name,
		"score":  p.Score,
		"throws": p.Throws,
	}
}

// loadPlayer rebuilds a player, resolving the stored identity into a live
// user. When the lookup fails (purged account) the persisted name is kept
// and the condition lands on the report.
func loadPlayer(ctx context.Context, resolver platform.UserResolver, doc codec.Document, rep *codec.Report) *Player {
	id := codec.String(doc, "id")
	p := &Player{
		User:   platform.User{ID: id, Name: codec.String(doc, "name")},
		Score:  codec.Int(doc, "score"),
		Throws: codec.Int(doc, "throws"),
	}
	if resolver != nil {
		if u, err := resolver.ResolveUser(ctx, id); err != nil {
			rep.Mark("user", id, "player.user")
		} else {
			p.User = u
		}
	}
	return p
}

// Potato is the playing piece. Its holder is a weak reference to a player,
// persisted as an identity string and bound in the resolution pass.
type Potato struct {
	Holder codec.Ref[*Player]
	FuseAt time.Time
}

func (p *Potato) Serialize() codec.Document {
	return codec.Document{
		"holder": p.Holder.ID,
		"fuseAt": codec.Stamp(p.FuseAt),
	}
}

func loadPotato(doc codec.Document) *Potato {
	return &Potato{
		Holder: codec.RefID[*Player](codec.String(doc, "holder")),
		FuseAt: codec.Time(doc, "fuseAt"),
	}
}
