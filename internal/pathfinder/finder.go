package pathfinder

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"warmpath/internal/graph"
	apperrors "warmpath/pkg/errors"
	"warmpath/pkg/logger"
)

// Store is the read-only slice of the graph repository the finder queries
type Store interface {
	FindPersonByEmail(ctx context.Context, email string) (*graph.Person, error)
	DirectKnows(ctx context.Context, myEmails []string, target string) (*graph.KnowsEdge, error)
	OneHopConnectors(ctx context.Context, myEmails []string, target string) ([]graph.ConnectorRow, error)
	KnownAtDomain(ctx context.Context, myEmails []string, domain string) ([]graph.ConnectorRow, error)
	CCConnectors(ctx context.Context, myEmails []string, target string) ([]graph.ConnectorRow, error)
}

// Finder evaluates introduction routes against the contact graph
type Finder struct {
	store  Store
	logger *zap.Logger
}

// New creates a path finder over the given graph store
func New(store Store) *Finder {
	return &Finder{
		store:  store,
		logger: logger.Named("pathfinder"),
	}
}

// FindPath returns the best introduction route to the target, evaluating
// tiers in strict priority order and stopping at the first non-empty one.
// targetDomain overrides the domain inferred from the target email for the
// company tier; pass "" to infer.
func (f *Finder) FindPath(ctx context.Context, identity graph.Identity, targetEmail, targetDomain string) (*IntroPath, error) {
	targetEmail = graph.NormalizeEmail(targetEmail)
	if targetEmail == "" {
		return nil, apperrors.NewMalformedMessage("", "prospect without email")
	}

	for _, tier := range tierOrder {
		path, err := f.evaluateTier(ctx, tier, identity, targetEmail, targetDomain)
		if err != nil {
			return nil, err
		}
		if path != nil {
			f.resolveTargetName(ctx, path)
			f.logger.Debug("Path found",
				zap.String("target", targetEmail),
				zap.String("path_type", string(path.Type)),
				zap.Int("path_strength", path.Strength),
			)
			return path, nil
		}
	}

	// Unreachable: the cold tier always yields a path
	return f.coldPath(targetEmail), nil
}

// FindAllPaths returns the best route of every non-empty tier, in tier
// priority order. The cold tier is included only when nothing else exists.
func (f *Finder) FindAllPaths(ctx context.Context, identity graph.Identity, targetEmail, targetDomain string) ([]IntroPath, error) {
	targetEmail = graph.NormalizeEmail(targetEmail)
	if targetEmail == "" {
		return nil, apperrors.NewMalformedMessage("", "prospect without email")
	}

	var paths []IntroPath
	for _, tier := range tierOrder {
		if tier == PathCold {
			continue
		}
		path, err := f.evaluateTier(ctx, tier, identity, targetEmail, targetDomain)
		if err != nil {
			return nil, err
		}
		if path != nil {
			paths = append(paths, *path)
		}
	}

	if len(paths) == 0 {
		paths = append(paths, *f.coldPath(targetEmail))
	}
	for i := range paths {
		f.resolveTargetName(ctx, &paths[i])
	}
	return paths, nil
}

// resolveTargetName fills in the target's display name when the target is
// already in the graph. Lookup failures are ignored; the name is cosmetic.
func (f *Finder) resolveTargetName(ctx context.Context, path *IntroPath) {
	if path.TargetName != "" {
		return
	}
	if person, err := f.store.FindPersonByEmail(ctx, path.TargetEmail); err == nil {
		path.TargetName = person.Name
	}
}

func (f *Finder) evaluateTier(ctx context.Context, tier PathType, identity graph.Identity, targetEmail, targetDomain string) (*IntroPath, error) {
	switch tier {
	case PathDirect:
		return f.directPath(ctx, identity, targetEmail)
	case PathOneHop:
		return f.connectorPath(ctx, tier, targetEmail, func() ([]graph.ConnectorRow, error) {
			return f.store.OneHopConnectors(ctx, identity.Emails, targetEmail)
		})
	case PathCompanyConnection:
		domain := targetDomain
		if domain == "" {
			domain = graph.EmailDomain(targetEmail)
		}
		if domain == "" {
			return nil, nil
		}
		return f.connectorPath(ctx, tier, targetEmail, func() ([]graph.ConnectorRow, error) {
			return f.store.KnownAtDomain(ctx, identity.Emails, domain)
		})
	case PathCCTogether:
		return f.connectorPath(ctx, tier, targetEmail, func() ([]graph.ConnectorRow, error) {
			return f.store.CCConnectors(ctx, identity.Emails, targetEmail)
		})
	case PathCold:
		return f.coldPath(targetEmail), nil
	}
	return nil, nil
}

func (f *Finder) directPath(ctx context.Context, identity graph.Identity, targetEmail string) (*IntroPath, error) {
	edge, err := f.store.DirectKnows(ctx, identity.Emails, targetEmail)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &IntroPath{
		TargetEmail: targetEmail,
		Type:        PathDirect,
		Strength:    PathStrength(PathDirect, edge.EmailCount, 0),
		LastContact: edge.LastContact,
		EmailCount:  edge.EmailCount,
	}, nil
}

func (f *Finder) connectorPath(ctx context.Context, tier PathType, targetEmail string, query func() ([]graph.ConnectorRow, error)) (*IntroPath, error) {
	rows, err := query()
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	rankConnectors(tier, rows)
	best := rows[0]

	strength := ConnectorStrength(best.EmailCount, daysSince(best))
	return &IntroPath{
		TargetEmail:       targetEmail,
		Type:              tier,
		Strength:          PathStrength(tier, best.EmailCount, strength),
		ConnectorEmail:    best.Email,
		ConnectorName:     best.Name,
		ConnectorStrength: strength,
		LastContact:       best.LastContact,
		EmailCount:        best.EmailCount,
		SharedCCCount:     best.CCCount,
	}, nil
}

func (f *Finder) coldPath(targetEmail string) *IntroPath {
	return &IntroPath{
		TargetEmail: targetEmail,
		Type:        PathCold,
		Strength:    0,
	}
}

// rankConnectors sorts candidates by the tier's primary key, then the
// documented deterministic tie-break: most recent last_contact, then
// lexicographic email. The store already orders its rows the same way;
// sorting here keeps ranking correct for any Store implementation.
func rankConnectors(tier PathType, rows []graph.ConnectorRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if tier == PathCCTogether && a.CCCount != b.CCCount {
			return a.CCCount > b.CCCount
		}
		if a.EmailCount != b.EmailCount {
			return a.EmailCount > b.EmailCount
		}
		if !a.LastContact.Equal(b.LastContact) {
			return a.LastContact.After(b.LastContact)
		}
		return a.Email < b.Email
	})
}

func daysSince(row graph.ConnectorRow) int {
	if row.LastContact.IsZero() {
		return 365
	}
	days := int(time.Since(row.LastContact).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
