// pkg/pipeline/maps.go
package pipeline

// Fixed mapping tables for the NHANES L-cycle extracts. The pipeline logic
// is generic over these tables; changing the study's variable selection
// means editing data here, not code elsewhere.

// InvalidCodes are the reserved sentinel values ("refused", "don't know")
// that disqualify an entire row when present in any numeric column.
var InvalidCodes = []float64{7, 9, 77, 99}

// PHQItems are the nine depression-screener item columns summed into the
// composite score. DPQ100 sits outside the battery: it is retained and
// renamed, never summed.
var PHQItems = []string{
	"DPQ010", "DPQ020", "DPQ030", "DPQ040", "DPQ050",
	"DPQ060", "DPQ070", "DPQ080", "DPQ090",
}

// TotalScoreColumn is the derived composite score appended after the nine
// item columns are consumed.
const TotalScoreColumn = "Total Score"

// DefaultDropList removes survey-design and weighting variables that play
// no role downstream. RIDSTATR is dropped here because the eligibility
// filter has already consumed it.
var DefaultDropList = []string{
	"SDDSRVYR", "RIDSTATR", "RIDEXMON", "RIDAGEMN", "RIDRETH1",
	"DMDBORN4", "DMDYRUSR", "DMQMILIZ", "DMDMARTZ", "RIDEXPRG",
	"WTINT2YR", "WTMEC2YR", "SDMVPSU", "SDMVSTRA", "INDFMMPC",
}

// DefaultRenameMap maps raw variable names to the labels used in the
// cleaned outputs. The map must stay injective; the curator enforces it.
var DefaultRenameMap = map[string]string{
	"RIDAGEYR": "Age in years at screening",
	"RIAGENDR": "Gender",
	"RIDRETH3": "Race/Hispanic origin w/ NH Asian",
	"DMDEDUC2": "Education level - Adults 20+",
	"DMDHHSIZ": "Total number of people in the Household",
	"INDFMPIR": "Ratio of family income to poverty",
	"HIQ011":   "Covered by health insurance",
	"HIQ032A":  "Covered by private insurance",
	"HIQ032B":  "Covered by Medicare",
	"HIQ032C":  "Covered by Medi-Gap",
	"HIQ032D":  "Covered by Medicaid",
	"HIQ032E":  "Covered by CHIP",
	"HIQ032F":  "Covered by military health care",
	"HIQ032H":  "Covered by state-sponsored health plan",
	"HIQ032I":  "Covered by other government insurance",
	"HIQ210":   "Time when no insurance in past year?",
	"HUQ030":   "Routine place to go for healthcare",
	"HUQ042":   "Type place most often go for healthcare",
	"HUQ051":   "#times receive healthcare over past year",
	"HUQ055":   "Past 12 months had video conf w/Dr?",
	"HUQ090":   "Seen mental health professional/past yr",
	"DPQ100":   "Difficulty these problems have caused",
	"DLQ060":   "Difficulty with self-care",
	"DLQ100":   "How often feel worried/nervous/anxious",
	"DLQ140":   "Level of feeling worried/nervous/anxious",
}

// YesNoColumns are recoded 1→1, 2→0.
var YesNoColumns = []string{
	"Covered by health insurance",
	"Time when no insurance in past year?",
	"Routine place to go for healthcare",
	"Past 12 months had video conf w/Dr?",
	"Seen mental health professional/past yr",
}

// InsuranceColumns are presence indicators: any recorded value means the
// respondent reported that coverage, so magnitude is ignored.
var InsuranceColumns = []string{
	"Covered by private insurance",
	"Covered by Medicare",
	"Covered by Medi-Gap",
	"Covered by Medicaid",
	"Covered by CHIP",
	"Covered by military health care",
	"Covered by state-sponsored health plan",
	"Covered by other government insurance",
}

// GenderMap recodes 1 (male) to 0 and 2 (female) to 1.
var GenderMap = map[float64]float64{1: 0, 2: 1}

// PostRecodeDrop removes coverage types too sparse to model.
var PostRecodeDrop = []string{
	"Covered by CHIP",
	"Covered by other government insurance",
}

// FillZeroColumns is the fixed list whose remaining missing values are
// filled with 0 and cast to integer after recoding. Columns already
// dropped are skipped, matching the source study's presence guards.
var FillZeroColumns = fillZeroColumns()

func fillZeroColumns() []string {
	cols := make([]string, 0, len(YesNoColumns)+len(InsuranceColumns)+9)
	cols = append(cols, YesNoColumns...)
	cols = append(cols, InsuranceColumns...)
	cols = append(cols,
		"Gender",
		"Education level - Adults 20+",
		"Difficulty these problems have caused",
		"Difficulty with self-care",
		"How often feel worried/nervous/anxious",
		"Level of feeling worried/nervous/anxious",
		"Type place most often go for healthcare",
		"Age in years at screening",
		"Total number of people in the Household",
	)
	return cols
}

// DefaultRowFilter returns the study's eligibility and sentinel filter.
func DefaultRowFilter() RowFilter {
	return RowFilter{
		AgeColumn:      "RIDAGEYR",
		MinAge:         18,
		StatusColumn:   "RIDSTATR",
		RequiredStatus: 2,
		InvalidCodes:   InvalidCodes,
	}
}

// DefaultScoreDeriver returns the PHQ-9 composite score stage: at least
// six of the nine items must fall in {0,1,2,3}.
func DefaultScoreDeriver() ScoreDeriver {
	return ScoreDeriver{
		Items:        PHQItems,
		ValidValues:  []float64{0, 1, 2, 3},
		MinValid:     6,
		OutputColumn: TotalScoreColumn,
	}
}

// DefaultCurator returns the study's drop list and rename map.
func DefaultCurator() Curator {
	return Curator{
		DropList:  DefaultDropList,
		RenameMap: DefaultRenameMap,
	}
}

// DefaultRecoder returns the modeling-format recode stage.
func DefaultRecoder() Recoder {
	return Recoder{
		YesNoColumns:    YesNoColumns,
		PresenceColumns: InsuranceColumns,
		ValueMaps:       map[string]map[float64]float64{"Gender": GenderMap},
		PostDrop:        PostRecodeDrop,
		FillZeroInt:     FillZeroColumns,
	}
}

// CleanStages returns the stages that produce the cleaned table from the
// merged table: filter, score, curate. Scoring runs before curation so the
// raw item columns are still present when the total is computed.
func CleanStages() []Stage {
	return []Stage{
		DefaultRowFilter(),
		DefaultScoreDeriver(),
		DefaultCurator(),
	}
}

// ModelStages returns the stages that turn the cleaned table into the
// model-ready table.
func ModelStages() []Stage {
	return []Stage{
		DefaultRecoder(),
	}
}
