package domain

import (
	"math"
	"time"
)

const daysPerYear = 365.2425

// Etab column names
const (
	ColCapital           = "capital"
	ColIncorporationDate = "DCREN"
	ColHeadcount         = "EFF_ENT"
)

// EstablishmentColumns lists the Etab columns used by the pipeline
var EstablishmentColumns = []string{ColCompanyID, ColCapital, ColIncorporationDate, ColHeadcount}

// Establishment is one row of the establishment registry. A company
// usually has several establishments.
type Establishment struct {
	CompanyID         string `json:"entrep_id"`
	Capital           string `json:"capital"`
	IncorporationDate string `json:"DCREN"`
	Headcount         string `json:"EFF_ENT"`
}

// Company is the per-company aggregate of its establishments
type Company struct {
	ID                int64     `json:"entrep_id"`
	IncorporationDate time.Time `json:"incorporation_date"`
	Capital           int64     `json:"capital"`
	Headcount         int64     `json:"headcount"`
}

// AgeAt returns the number of full years between incorporation and t,
// counted on the mean Gregorian year
func (c Company) AgeAt(t time.Time) int {
	days := DaysBetween(c.IncorporationDate, t)
	if days <= 0 {
		return 0
	}
	return int(math.Floor(days / daysPerYear))
}

// Merge folds another establishment aggregate of the same company into c,
// keeping the earliest incorporation date and the largest capital and headcount.
func (c Company) Merge(other Company) Company {
	if other.IncorporationDate.Before(c.IncorporationDate) {
		c.IncorporationDate = other.IncorporationDate
	}
	if other.Capital > c.Capital {
		c.Capital = other.Capital
	}
	if other.Headcount > c.Headcount {
		c.Headcount = other.Headcount
	}
	return c
}
