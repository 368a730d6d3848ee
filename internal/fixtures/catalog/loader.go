// Package catalog loads demo profiles, products and prices for the
// in-memory store used by DATABASE_DRIVER=memory and the service tests.
package catalog

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amirasaad/escrow/infra/repository/memory"
	"github.com/amirasaad/escrow/pkg/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:embed catalog.csv
var catalogCSV string

// Well-known rows of the embedded catalog.
var (
	GuitarID    = uuid.MustParse("5b0c1a86-2f0e-4b4e-9d3c-1f9a1c0e7a11")
	AmplifierID = uuid.MustParse("8d2e6c4b-3a1f-4c7e-b5d9-0e4f2a6b8c13")
)

const columns = 7

// Seed is the parsed content of a catalog CSV.
type Seed struct {
	Profiles []catalog.Profile
	Products []catalog.ProfileProduct
	Prices   []catalog.Price
}

// LoadCatalogCSV loads a catalog from a CSV file or, when path is empty,
// from the embedded content.
func LoadCatalogCSV(path string) (*Seed, error) {
	var r io.Reader

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	} else {
		r = strings.NewReader(catalogCSV)
	}

	return parseCatalogCSV(r, time.Now().UTC())
}

// Apply writes the seed into store.
func (s *Seed) Apply(store *memory.Store) {
	for _, p := range s.Profiles {
		store.AddProfile(p)
	}
	for _, p := range s.Products {
		store.AddProduct(p)
	}
	for _, p := range s.Prices {
		store.AddPrice(p)
	}
}

func parseCatalogCSV(r io.Reader, now time.Time) (*Seed, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}

	seed := &Seed{}
	seen := make(map[string]bool)
	for i, rec := range records {
		if i == 0 {
			if len(rec) < columns {
				return nil, fmt.Errorf(
					"invalid CSV format: expected at least %d columns, got %d", columns, len(rec))
			}
			continue
		}
		if len(rec) < columns || rec[0] == "" {
			continue
		}

		username := strings.TrimSpace(rec[0])
		if !seen[username] {
			seen[username] = true
			seed.Profiles = append(seed.Profiles, catalog.Profile{
				ID:              uuid.NewSHA1(uuid.NameSpaceOID, []byte(username)),
				Username:        username,
				Email:           strings.TrimSpace(rec[1]),
				PayoutAccountID: strings.TrimSpace(rec[2]),
				IsActive:        true,
				CreatedAt:       now,
			})
		}
		if rec[3] == "" {
			continue
		}

		product, price, err := parseProduct(username, rec, now)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		seed.Products = append(seed.Products, product)
		seed.Prices = append(seed.Prices, price)
	}
	return seed, nil
}

func parseProduct(owner string, rec []string, now time.Time) (catalog.ProfileProduct, catalog.Price, error) {
	id, err := uuid.Parse(strings.TrimSpace(rec[3]))
	if err != nil {
		return catalog.ProfileProduct{}, catalog.Price{}, fmt.Errorf("invalid product id: %w", err)
	}
	units, err := strconv.ParseInt(strings.TrimSpace(rec[5]), 10, 64)
	if err != nil {
		return catalog.ProfileProduct{}, catalog.Price{}, fmt.Errorf("invalid units: %w", err)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rec[6]))
	if err != nil {
		return catalog.ProfileProduct{}, catalog.Price{}, fmt.Errorf("invalid price: %w", err)
	}
	if amount.IsNegative() || units < 0 {
		return catalog.ProfileProduct{}, catalog.Price{}, errors.New("units and price must not be negative")
	}
	product := catalog.ProfileProduct{
		ID:            id,
		OwnerUsername: owner,
		Description:   strings.TrimSpace(rec[4]),
		Units:         units,
		IsActive:      true,
	}
	price := catalog.Price{
		ID:               uuid.NewSHA1(id, []byte("price")),
		ProfileProductID: id,
		Price:            amount,
		CreatedAt:        now,
	}
	return product, price, nil
}
