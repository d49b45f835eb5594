package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/tkd-tournament/models"
)

// Колонки листа с заявками (индонезийские названия).
const (
	ColName          = "nama_lengkap"
	ColGender        = "jenis_kelamin"
	ColBirthDate     = "tanggal_lahir"
	ColWeight        = "berat_badan"
	ColHeight        = "tinggi_badan"
	ColBelt          = "sabuk"
	ColDojang        = "dojang"
	ColCategoryID    = "id_kategori"
	ColCompetitionID = "id_kompetisi"
	ColPresent       = "hadir"
)

// FieldMap - единственная таблица соответствия колонок листа и полей спортсмена.
var FieldMap = map[string]string{
	ColName:          "name",
	ColGender:        "gender",
	ColBirthDate:     "birth_date",
	ColWeight:        "weight",
	ColHeight:        "height",
	ColBelt:          "belt",
	ColDojang:        "dojang",
	ColCategoryID:    "category_id",
	ColCompetitionID: "competition_id",
	ColPresent:       "is_present",
}

// Columns задаёт порядок колонок при записи строки.
var Columns = []string{
	ColName, ColGender, ColBirthDate, ColWeight, ColHeight,
	ColBelt, ColDojang, ColCategoryID, ColCompetitionID, ColPresent,
}

const dateLayout = "2006-01-02"

// RawRecord - одна строка листа, ключи - заголовки колонок.
type RawRecord map[string]string

// AthleteRecord - строка листа в каноничных полях.
type AthleteRecord struct {
	Name          string
	Gender        models.Gender
	BirthDate     string
	Weight        float64
	Height        float64
	Belt          string
	Dojang        string
	CategoryID    *int
	CompetitionID string
	IsPresent     bool
}

// Canonical переименовывает ключи записи по FieldMap. Неизвестные колонки отбрасываются.
func (r RawRecord) Canonical() map[string]string {
	out := make(map[string]string, len(FieldMap))
	for col, value := range r {
		if field, ok := FieldMap[normalizeHeader(col)]; ok {
			out[field] = strings.TrimSpace(value)
		}
	}
	return out
}

func Decode(raw RawRecord) (AthleteRecord, error) {
	fields := raw.Canonical()

	rec := AthleteRecord{
		Name:          fields["name"],
		Belt:          fields["belt"],
		Dojang:        fields["dojang"],
		CompetitionID: fields["competition_id"],
	}
	if rec.Name == "" {
		return AthleteRecord{}, fmt.Errorf("column %s is empty", ColName)
	}

	gender, err := ParseGender(fields["gender"])
	if err != nil {
		return AthleteRecord{}, err
	}
	rec.Gender = gender

	if v := fields["birth_date"]; v != "" {
		t, err := parseDate(v)
		if err != nil {
			return AthleteRecord{}, fmt.Errorf("column %s: %w", ColBirthDate, err)
		}
		rec.BirthDate = t.Format(dateLayout)
	}
	if rec.Weight, err = parseNumber(fields["weight"]); err != nil {
		return AthleteRecord{}, fmt.Errorf("column %s: %w", ColWeight, err)
	}
	if rec.Height, err = parseNumber(fields["height"]); err != nil {
		return AthleteRecord{}, fmt.Errorf("column %s: %w", ColHeight, err)
	}
	if v := fields["category_id"]; v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return AthleteRecord{}, fmt.Errorf("column %s: %q is not a number", ColCategoryID, v)
		}
		rec.CategoryID = &id
	}
	if v := fields["is_present"]; v != "" {
		present, err := ParseBool(v)
		if err != nil {
			return AthleteRecord{}, fmt.Errorf("column %s: %w", ColPresent, err)
		}
		rec.IsPresent = present
	}
	return rec, nil
}

func Encode(rec AthleteRecord) RawRecord {
	raw := RawRecord{
		ColName:          rec.Name,
		ColGender:        string(rec.Gender),
		ColBirthDate:     rec.BirthDate,
		ColWeight:        formatNumber(rec.Weight),
		ColHeight:        formatNumber(rec.Height),
		ColBelt:          rec.Belt,
		ColDojang:        rec.Dojang,
		ColCategoryID:    "",
		ColCompetitionID: rec.CompetitionID,
		ColPresent:       "tidak",
	}
	if rec.CategoryID != nil {
		raw[ColCategoryID] = strconv.Itoa(*rec.CategoryID)
	}
	if rec.IsPresent {
		raw[ColPresent] = "ya"
	}
	return raw
}

func FromAthlete(a *models.Athlete) AthleteRecord {
	rec := AthleteRecord{
		Name:          a.Name,
		Gender:        a.Gender,
		Weight:        a.Weight,
		Height:        a.Height,
		Belt:          a.Belt,
		Dojang:        a.Dojang,
		CategoryID:    a.CategoryID,
		CompetitionID: a.CompetitionID,
		IsPresent:     a.IsPresent,
	}
	if a.BirthDate != nil {
		rec.BirthDate = a.BirthDate.Format(dateLayout)
	}
	return rec
}

// Row раскладывает запись по Columns.
func (r RawRecord) Row() []interface{} {
	row := make([]interface{}, len(Columns))
	for i, col := range Columns {
		row[i] = r[col]
	}
	return row
}

// ParseGender понимает L/P, Putra/Putri и M/F.
func ParseGender(v string) (models.Gender, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "l", "laki-laki", "putra", "m":
		return models.GenderMale, nil
	case "p", "perempuan", "putri", "f":
		return models.GenderFemale, nil
	default:
		return "", fmt.Errorf("column %s: unknown gender %q", ColGender, v)
	}
}

func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "ya", "true", "t", "1", "y":
		return true, nil
	case "tidak", "false", "f", "0", "n":
		return false, nil
	default:
		return false, fmt.Errorf("unknown boolean %q", v)
	}
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range []string{dateLayout, "02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown date format %q", v)
}

// parseNumber принимает и десятичную запятую ("45,5").
func parseNumber(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	if f < 0 {
		return 0, fmt.Errorf("%q is negative", v)
	}
	return f, nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
