package hotpotato

import (
	"context"
	"fmt"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/game"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/router"
)

// RegisterCommands adds the module's game-specific subcommands to the
// router. Each one resolves the channel's game before running.
func RegisterCommands(r *router.Router) {
	r.Register("score", func(ctx context.Context, g game.Game, req router.Request) (string, error) {
		hp, ok := g.(*Game)
		if !ok {
			return "", fmt.Errorf("unexpected game type %T", g)
		}
		return hp.Standings(), nil
	})
}
