package tenantseed

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"sync"

	_ "embed"

	"github.com/view360/provisioning/pkg/models"
)

// The generic-value catalog is a versioned, read-only data asset. IDs and
// group IDs are global constants shared by every tenant; other parts of the
// suite reference them by numeric id, so rows must be copied into new
// tenants unchanged except for the org id column.
//
//go:embed catalog.csv
var catalogCSV []byte

var (
	catalogOnce sync.Once
	catalogRows []models.GenericValue
	catalogErr  error
)

// Catalog returns the embedded generic-value reference catalog with a zero
// org id. The slice is shared; callers must not mutate it.
func Catalog() ([]models.GenericValue, error) {
	catalogOnce.Do(func() {
		catalogRows, catalogErr = parseCatalog(catalogCSV)
	})
	return catalogRows, catalogErr
}

// CatalogRows returns a copy of the catalog with every row's org id set to
// the given tenant.
func CatalogRows(orgID int64) ([]models.GenericValue, error) {
	base, err := Catalog()
	if err != nil {
		return nil, err
	}
	rows := make([]models.GenericValue, len(base))
	copy(rows, base)
	for i := range rows {
		rows[i].OrgID = orgID
	}
	return rows, nil
}

func parseCatalog(data []byte) ([]models.GenericValue, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("catalog is empty")
	}

	rows := make([]models.GenericValue, 0, len(records)-1)
	seen := make(map[int]bool, len(records)-1)
	for i, rec := range records[1:] { // skip header
		if len(rec) != 7 {
			return nil, fmt.Errorf("catalog line %d: expected 7 fields, got %d", i+2, len(rec))
		}

		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: bad id %q", i+2, rec[0])
		}
		if seen[id] {
			return nil, fmt.Errorf("catalog line %d: duplicate id %d", i+2, id)
		}
		seen[id] = true

		groupID, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: bad group id %q", i+2, rec[1])
		}
		order, err := strconv.Atoi(rec[6])
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: bad display order %q", i+2, rec[6])
		}

		var parentID *int
		if rec[5] != "" {
			p, err := strconv.Atoi(rec[5])
			if err != nil {
				return nil, fmt.Errorf("catalog line %d: bad parent id %q", i+2, rec[5])
			}
			parentID = &p
		}

		rows = append(rows, models.GenericValue{
			ID:           id,
			GroupID:      groupID,
			Name:         rec[2],
			Active:       rec[3] == "1",
			IsDefault:    rec[4] == "1",
			ParentID:     parentID,
			DisplayOrder: order,
		})
	}

	// Hierarchical lookups must resolve within the catalog itself.
	for _, row := range rows {
		if row.ParentID != nil && !seen[*row.ParentID] {
			return nil, fmt.Errorf("catalog row %d references missing parent %d", row.ID, *row.ParentID)
		}
	}

	return rows, nil
}
