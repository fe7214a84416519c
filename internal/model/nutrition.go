package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// Amount is a nutrient measurement that may be missing from the source data.
// A missing measurement is stored as NULL and printed as "unknown".
type Amount struct {
	Float64 float64
	Valid   bool
}

// Unknown is the zero Amount.
var Unknown = Amount{}

// Known wraps a measured value.
func Known(v float64) Amount {
	return Amount{Float64: v, Valid: true}
}

func (a Amount) String() string {
	if !a.Valid {
		return "unknown"
	}
	return strconv.FormatFloat(a.Float64, 'f', -1, 64)
}

// Value implements the driver.Valuer interface
func (a Amount) Value() (driver.Value, error) {
	if !a.Valid {
		return nil, nil
	}
	return a.Float64, nil
}

// Scan implements the sql.Scanner interface
func (a *Amount) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = Unknown
	case float64:
		*a = Known(v)
	case float32:
		*a = Known(float64(v))
	case int64:
		*a = Known(float64(v))
	case []byte:
		return a.parse(string(v))
	case string:
		return a.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into Amount", value)
	}
	return nil
}

func (a *Amount) parse(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot parse amount %q: %w", s, err)
	}
	*a = Known(f)
	return nil
}

// NutritionRecord is a cached nutrition summary for one normalized food name.
// Records are written once on the first successful fetch and never updated.
type NutritionRecord struct {
	Name        string    `gorm:"primaryKey;size:255" json:"name"`
	ExternalID  string    `gorm:"size:64;index" json:"external_id"`
	Description string    `gorm:"size:512" json:"description"`
	Document    string    `gorm:"type:text;not null" json:"document"`
	Source      string    `gorm:"size:50" json:"source"`
	Energy      Amount    `gorm:"type:float" json:"-"`
	Protein     Amount    `gorm:"type:float" json:"-"`
	Fat         Amount    `gorm:"type:float" json:"-"`
	Carbs       Amount    `gorm:"type:float" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

func (NutritionRecord) TableName() string {
	return "nutrition_records"
}
