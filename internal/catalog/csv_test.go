package catalog

import (
	"strings"
	"testing"

	"github.com/peterldowns/testy/check"
)

const sampleCSV = `Set No.,2026 Set,First Name,Surname,Country,Reserve Price Rs Lakh,Specialism
2,AL1,Ravi,Sharma,India,200,ALL-ROUNDER
1,BA1,Tom,Barnes,England,INR 150,BATTER
1,BA1,Arjun,Patel,India,75.5,BATTER
2,AL1,,Mendis,Sri Lanka,100,ALL-ROUNDER
,,,,,,
`

func TestParse_GroupsSetsAscending(t *testing.T) {
	cat, err := Parse(strings.NewReader(sampleCSV))
	check.Nil(t, err)

	check.Equal(t, 4, cat.Size())
	check.Equal(t, 2, len(cat.Sets))
	check.Equal(t, 1, cat.Sets[0].Number)
	check.Equal(t, "BA1", cat.Sets[0].Code)
	check.Equal(t, 2, cat.Sets[1].Number)
	check.Equal(t, "AL1", cat.Sets[1].Code)

	// File order kept within a set.
	first, _ := cat.Player(cat.Sets[0].PlayerIDs[0])
	check.Equal(t, "Tom Barnes", first.FullName())
}

func TestParse_ScrubsPrices(t *testing.T) {
	cat, err := Parse(strings.NewReader(sampleCSV))
	check.Nil(t, err)

	var barnes, patel float64
	for _, p := range cat.Players {
		switch p.Surname {
		case "Barnes":
			barnes = p.BasePrice
		case "Patel":
			patel = p.BasePrice
		}
	}
	check.Equal(t, 150.0, barnes) // "INR 150"
	check.Equal(t, 75.5, patel)
}

func TestParse_SkipsNamelessRows(t *testing.T) {
	cat, err := Parse(strings.NewReader(sampleCSV))
	check.Nil(t, err)

	// Surname-only row is kept, the fully blank row is not.
	found := false
	for _, p := range cat.Players {
		check.True(t, p.FullName() != "")
		if p.Surname == "Mendis" {
			found = true
			check.Equal(t, "Mendis", p.FullName())
		}
	}
	check.True(t, found)
}

func TestParse_AlternateHeaders(t *testing.T) {
	csv := `Set Code,Player,Last Name,Base Price,Role
GK1,Lev,Yashin,50,KEEPER
`
	cat, err := Parse(strings.NewReader(csv))
	check.Nil(t, err)
	check.Equal(t, 1, cat.Size())

	p, ok := cat.Player(1)
	check.True(t, ok)
	check.Equal(t, "Lev Yashin", p.FullName())
	check.Equal(t, "GK1", p.SetCode)
	check.Equal(t, 50.0, p.BasePrice)
	check.Equal(t, "KEEPER", p.Role)
	check.Equal(t, 0, p.SetNo) // no set number column
}

func TestParse_OpeningPriceConversion(t *testing.T) {
	cat, err := Parse(strings.NewReader(sampleCSV))
	check.Nil(t, err)

	for _, p := range cat.Players {
		check.Equal(t, p.BasePrice/100.0, p.OpeningPrice())
	}
}
