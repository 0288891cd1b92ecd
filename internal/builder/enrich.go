package builder

import (
	"context"

	"go.uber.org/zap"

	"warmpath/internal/graph"
	"warmpath/pkg/logger"
)

// EnrichStore is the slice of the graph repository enrichment writes to
type EnrichStore interface {
	ListPersons(ctx context.Context) ([]graph.Person, error)
	UpsertCompany(ctx context.Context, c graph.Company) error
	UpsertWorksAt(ctx context.Context, personEmail, companyName string) error
}

// freemailDomains are consumer providers that never identify an employer
var freemailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"live.com":       true,
	"msn.com":        true,
	"icloud.com":     true,
	"me.com":         true,
	"aol.com":        true,
	"protonmail.com": true,
	"proton.me":      true,
	"pm.me":          true,
	"gmx.com":        true,
	"mail.com":       true,
	"comcast.net":    true,
	"qq.com":         true,
	"163.com":        true,
}

// EnrichReport summarizes one enrichment pass
type EnrichReport struct {
	Persons   int `json:"persons"`
	Linked    int `json:"linked"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	Companies int `json:"companies"`
}

// Enricher derives Company nodes and WORKS_AT edges from person email
// domains, which feeds the company-connection path tier
type Enricher struct {
	store  EnrichStore
	logger *zap.Logger
}

// NewEnricher creates an enricher over the given graph store
func NewEnricher(store EnrichStore) *Enricher {
	return &Enricher{
		store:  store,
		logger: logger.Named("enricher"),
	}
}

// Run walks every person and links those on a corporate domain to a
// Company node named after the domain. Freemail addresses are skipped.
// One failed person is counted and skipped, never fatal.
func (e *Enricher) Run(ctx context.Context) (*EnrichReport, error) {
	persons, err := e.store.ListPersons(ctx)
	if err != nil {
		return nil, err
	}

	report := &EnrichReport{Persons: len(persons)}
	seen := make(map[string]bool)

	for _, p := range persons {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		domain := graph.EmailDomain(p.Email)
		if domain == "" || freemailDomains[domain] {
			report.Skipped++
			continue
		}

		if !seen[domain] {
			if err := e.store.UpsertCompany(ctx, graph.Company{Name: domain, Domain: domain}); err != nil {
				e.logger.Warn("Failed to upsert company",
					zap.String("domain", domain),
					zap.Error(err),
				)
				report.Errors++
				continue
			}
			seen[domain] = true
			report.Companies++
		}

		if err := e.store.UpsertWorksAt(ctx, p.Email, domain); err != nil {
			e.logger.Warn("Failed to link person to company",
				zap.String("email", p.Email),
				zap.String("domain", domain),
				zap.Error(err),
			)
			report.Errors++
			continue
		}
		report.Linked++
	}

	e.logger.Info("Enrichment complete",
		zap.Int("persons", report.Persons),
		zap.Int("linked", report.Linked),
		zap.Int("companies", report.Companies),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", report.Errors),
	)
	return report, nil
}
