package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"revenue-dashboard/internal/models"
)

const (
	colInternalID = "InternalID"
	colBranchName = "Branch_Name"
	colCompany    = "CompanyName"
	colCity       = "City"
)

// BranchSet is the branch reference master: loaded once from CSV at startup,
// read-only afterwards.
type BranchSet struct {
	branches []models.Branch
	options  []models.BranchOption
	byID     map[int]models.Branch
	loadedAt time.Time
	dropped  int
}

// LoadBranches reads the branch master CSV. The file must carry the
// InternalID and Branch_Name columns; CompanyName and City are optional.
// Rows missing a required field or with a non-integer ID are dropped.
func LoadBranches(ctx context.Context, path string) (*BranchSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open branch master: %w", err)
	}
	defer file.Close()

	return ParseBranches(ctx, file)
}

// ParseBranches is LoadBranches over an already-open reader.
func ParseBranches(ctx context.Context, r io.Reader) (*BranchSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read branch master header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{colInternalID, colBranchName} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("branch master must contain columns %s and %s, missing %s",
				colInternalID, colBranchName, required)
		}
	}

	set := &BranchSet{
		byID:     make(map[int]models.Branch),
		loadedAt: time.Now(),
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read branch master row: %w", err)
		}

		branch, ok := parseBranch(record, cols)
		if !ok {
			set.dropped++
			continue
		}

		set.branches = append(set.branches, branch)
		set.byID[branch.InternalID] = branch
	}

	set.options = buildOptions(set.branches)

	slog.Default().Info("branch master loaded",
		"branches", len(set.branches),
		"options", len(set.options),
		"dropped", set.dropped,
	)

	return set, nil
}

func parseBranch(record []string, cols map[string]int) (models.Branch, bool) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	rawID := field(colInternalID)
	name := field(colBranchName)
	if rawID == "" || name == "" {
		return models.Branch{}, false
	}

	id, err := strconv.Atoi(rawID)
	if err != nil {
		return models.Branch{}, false
	}

	return models.Branch{
		InternalID: id,
		Name:       name,
		Company:    field(colCompany),
		City:       field(colCity),
	}, true
}

// buildOptions produces the selector entries: labels carry a city suffix
// when one is present, duplicate (label, id) pairs collapse, output is
// sorted by label then ID.
func buildOptions(branches []models.Branch) []models.BranchOption {
	seen := make(map[string]bool, len(branches))
	options := make([]models.BranchOption, 0, len(branches))

	for _, b := range branches {
		label := b.Name
		if b.City != "" {
			label = b.Name + " — " + b.City
		}

		key := label + "|" + strconv.Itoa(b.InternalID)
		if seen[key] {
			continue
		}
		seen[key] = true

		options = append(options, models.BranchOption{ID: b.InternalID, Label: label})
	}

	slices.SortFunc(options, func(a, b models.BranchOption) int {
		if c := strings.Compare(a.Label, b.Label); c != 0 {
			return c
		}
		return a.ID - b.ID
	})

	return options
}

// Options returns the deduplicated, sorted selector entries.
func (s *BranchSet) Options() []models.BranchOption {
	return s.options
}

// Lookup resolves a branch by its internal ID.
func (s *BranchSet) Lookup(id int) (models.Branch, bool) {
	b, ok := s.byID[id]
	return b, ok
}

// Len reports how many branches survived the load.
func (s *BranchSet) Len() int {
	return len(s.branches)
}

// Stats feeds the admin endpoint.
func (s *BranchSet) Stats() map[string]any {
	return map[string]any{
		"branches":  len(s.branches),
		"options":   len(s.options),
		"dropped":   s.dropped,
		"loaded_at": s.loadedAt,
	}
}
