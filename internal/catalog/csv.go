// Package catalog loads the normalized player list the auction engine
// consumes. Only CSV is handled here; richer document ingestion is an
// upstream concern.
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"player-auction/internal/domain"
)

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// Column header aliases, matched case-insensitively by substring. The
// names follow the published auction list format.
var (
	setNoAliases   = []string{"set no"}
	setCodeAliases = []string{"2026 set", "set code", "set"}
	firstAliases   = []string{"first name", "player"}
	surnameAliases = []string{"surname", "last name"}
	countryAliases = []string{"country"}
	priceAliases   = []string{"reserve price", "base price"}
	roleAliases    = []string{"specialism", "role"}
)

type CSVLoader struct {
	path string
}

func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{path: path}
}

func (l *CSVLoader) LoadCatalog(ctx context.Context) (*domain.Catalog, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a player CSV into an ordered catalog: sets ascending by
// set number, players in file order within each set.
func Parse(r io.Reader) (*domain.Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idxSetNo := findColumn(header, setNoAliases)
	idxSetCode := findColumn(header, setCodeAliases)
	idxFirst := findColumn(header, firstAliases)
	idxSurname := findColumn(header, surnameAliases)
	idxCountry := findColumn(header, countryAliases)
	idxPrice := findColumn(header, priceAliases)
	idxRole := findColumn(header, roleAliases)

	players := make(map[int]*domain.Player)
	bySet := make(map[int][]int)
	id := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		first := cell(row, idxFirst)
		surname := cell(row, idxSurname)
		if first == "" && surname == "" {
			continue
		}

		setNo, _ := strconv.Atoi(cell(row, idxSetNo))
		player := &domain.Player{
			ID:        id,
			SetNo:     setNo,
			SetCode:   cell(row, idxSetCode),
			FirstName: first,
			Surname:   surname,
			Country:   cell(row, idxCountry),
			Role:      cell(row, idxRole),
			BasePrice: parsePrice(cell(row, idxPrice)),
		}
		players[id] = player
		bySet[setNo] = append(bySet[setNo], id)
		id++
	}

	setNumbers := make([]int, 0, len(bySet))
	for n := range bySet {
		setNumbers = append(setNumbers, n)
	}
	sort.Ints(setNumbers)

	sets := make([]domain.Set, 0, len(setNumbers))
	for _, n := range setNumbers {
		ids := bySet[n]
		sets = append(sets, domain.Set{
			Number:    n,
			Code:      players[ids[0]].SetCode,
			PlayerIDs: ids,
		})
	}

	return &domain.Catalog{Players: players, Sets: sets}, nil
}

// findColumn tries aliases most-specific first so a bare "set" alias
// cannot steal the "Set No." column.
func findColumn(header []string, aliases []string) int {
	for _, a := range aliases {
		for idx, h := range header {
			if strings.Contains(strings.ToLower(strings.TrimSpace(h)), a) {
				return idx
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parsePrice tolerates values like "200", "INR 200" or "200.0 Lakh".
func parsePrice(raw string) float64 {
	digits := nonNumeric.ReplaceAllString(raw, "")
	if digits == "" {
		return 0
	}
	price, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	return price
}
