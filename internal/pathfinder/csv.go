package pathfinder

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"warmpath/internal/graph"
)

// entryPathHeader is the column set of the batch output
var entryPathHeader = []string{
	"prospect_email", "prospect_name", "path_type", "path_strength",
	"connector_email", "connector_name", "connector_strength",
	"last_contact", "email_count", "shared_cc_count",
}

// ReadProspects parses a prospect list CSV. The first row is a header;
// an email column is required, name and company are optional. Rows
// without an email are counted and skipped, never fatal.
func ReadProspects(r io.Reader) ([]Prospect, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read prospect header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	emailCol, ok := cols["email"]
	if !ok {
		return nil, 0, fmt.Errorf("prospect CSV has no email column")
	}

	var prospects []Prospect
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("failed to read prospect row: %w", err)
		}

		email := graph.NormalizeEmail(field(record, emailCol))
		if email == "" {
			skipped++
			continue
		}

		p := Prospect{Email: email}
		if i, ok := cols["name"]; ok {
			p.Name = strings.TrimSpace(field(record, i))
		}
		if i, ok := cols["company"]; ok {
			p.Company = strings.TrimSpace(field(record, i))
		}
		prospects = append(prospects, p)
	}

	return prospects, skipped, nil
}

// WriteEntryPaths writes one best-path record per prospect
func WriteEntryPaths(w io.Writer, paths []IntroPath) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(entryPathHeader); err != nil {
		return fmt.Errorf("failed to write entry-path header: %w", err)
	}

	for _, p := range paths {
		lastContact := ""
		if !p.LastContact.IsZero() {
			lastContact = p.LastContact.UTC().Format(time.RFC3339)
		}
		record := []string{
			p.TargetEmail,
			p.TargetName,
			string(p.Type),
			strconv.Itoa(p.Strength),
			p.ConnectorEmail,
			p.ConnectorName,
			strconv.Itoa(p.ConnectorStrength),
			lastContact,
			strconv.Itoa(p.EmailCount),
			strconv.Itoa(p.SharedCCCount),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write entry-path row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// RunBatch computes the best path for every prospect. A failure on one
// prospect is logged and skipped; the batch always completes.
func (f *Finder) RunBatch(ctx context.Context, identity graph.Identity, prospects []Prospect) []IntroPath {
	paths := make([]IntroPath, 0, len(prospects))

	for _, prospect := range prospects {
		select {
		case <-ctx.Done():
			return paths
		default:
		}

		domain := ""
		if prospect.Company != "" {
			// An explicit company name is not a domain; only use it when
			// it already looks like one
			if strings.Contains(prospect.Company, ".") && !strings.Contains(prospect.Company, " ") {
				domain = strings.ToLower(prospect.Company)
			}
		}

		path, err := f.FindPath(ctx, identity, prospect.Email, domain)
		if err != nil {
			f.logger.Warn("Skipping prospect",
				zap.String("email", prospect.Email),
				zap.Error(err),
			)
			continue
		}
		if prospect.Name != "" {
			path.TargetName = prospect.Name
		}
		paths = append(paths, *path)
	}

	return paths
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
