package domain

// Score column names
const (
	ColBalanceDate = "dateBilan"
	ColSource      = "sourceModif"
	ColSolvency    = "scoreSolv"
	ColZScore      = "scoreZ"
	ColConanHolder = "scoreCH"
	ColAltman      = "scoreAltman"
)

// ScoreColumns lists the Score columns used by the pipeline
var ScoreColumns = []string{
	ColCompanyID,
	ColBalanceDate,
	ColSource,
	ColSolvency,
	ColZScore,
	ColConanHolder,
	ColAltman,
}

// RawScore is one row of the score extract as read
type RawScore struct {
	CompanyID   string `json:"entrep_id"`
	BalanceDate string `json:"dateBilan"`
	Source      string `json:"sourceModif"`
	Solvency    string `json:"scoreSolv"`
	ZScore      string `json:"scoreZ"`
	ConanHolder string `json:"scoreCH"`
	Altman      string `json:"scoreAltman"`
}

// Score holds the financial health scores of a company for one fiscal year
type Score struct {
	CompanyID   int64   `json:"entrep_id"`
	Year        int     `json:"year"`
	Source      string  `json:"sourceModif"`
	Solvency    float64 `json:"scoreSolv"`
	ZScore      float64 `json:"scoreZ"`
	ConanHolder float64 `json:"scoreCH"`
	Altman      float64 `json:"scoreAltman"`
}

// ScoreKey identifies the scores of a company for a given year
type ScoreKey struct {
	CompanyID int64
	Year      int
}

// Key returns the join key of the score
func (s Score) Key() ScoreKey {
	return ScoreKey{CompanyID: s.CompanyID, Year: s.Year}
}
