package switches

import (
	"context"

	"github.com/yungbote/neurobridge-completion/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-completion/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
)

// Gate guards mutations behind one named switch. The zero Default is off.
type Gate struct {
	name     string
	provider Provider
	def      bool
	log      *logger.Logger
}

func NewGate(name string, provider Provider, def bool, baseLog *logger.Logger) *Gate {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Gate{
		name:     name,
		provider: provider,
		def:      def,
		log:      baseLog.With("gate", name),
	}
}

func (g *Gate) Name() string { return g.name }

// IsEnabled never fails: provider errors are logged and read as off.
func (g *Gate) IsEnabled(ctx context.Context) bool {
	if g == nil || g.provider == nil {
		return false
	}
	active, found, err := g.provider.Lookup(ctxutil.Default(ctx), g.name)
	if err != nil {
		g.log.Warn("switch lookup failed, treating as disabled", "error", err)
		return false
	}
	if !found {
		return g.def
	}
	return active
}

func (g *Gate) RequireEnabled(ctx context.Context) error {
	if g.IsEnabled(ctx) {
		return nil
	}
	name := ""
	if g != nil {
		name = g.name
	}
	return aggregates.NewError(aggregates.CodeConfiguration, "switches.require",
		"completion tracking disabled: switch "+name+" is off", nil)
}
