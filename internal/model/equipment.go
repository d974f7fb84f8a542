package model

import "time"

// Lifecycle labels known to the registry. Only StatusAvailable is structural:
// it is the status every record is registered with. Other labels are stored
// verbatim, so hosts may use their own vocabulary.
const (
	StatusAvailable   = "available"
	StatusAllocated   = "allocated"
	StatusInUse       = "in-use"
	StatusMaintenance = "maintenance"
	StatusRetired     = "retired"
)

// Equipment represents one donated medical equipment item.
type Equipment struct {
	ID                      int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Owner                   Principal `gorm:"size:160;not null;index" json:"owner"`
	Name                    string    `gorm:"size:256;not null" json:"name"`
	Description             string    `gorm:"type:text;not null" json:"description"`
	Specifications          string    `gorm:"type:text;not null" json:"specifications"`
	Condition               string    `gorm:"type:text;not null" json:"condition"`
	EstimatedValue          uint64    `gorm:"serializer:json;type:varchar(20);not null" json:"estimatedValue"` // decimal text; SQL drivers reject uint64 above MaxInt64
	MaintenanceRequirements string    `gorm:"type:text;not null" json:"maintenanceRequirements"`
	TrainingRequired        bool      `gorm:"not null" json:"trainingRequired"`
	RegistrationHeight      uint64    `gorm:"not null" json:"registrationHeight"`
	Status                  string    `gorm:"size:64;not null;index" json:"status"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// Details is the amendable part of an equipment record.
type Details struct {
	Description             string `json:"description"`
	Specifications          string `json:"specifications"`
	Condition               string `json:"condition"`
	EstimatedValue          uint64 `json:"estimatedValue"`
	MaintenanceRequirements string `json:"maintenanceRequirements"`
	TrainingRequired        bool   `json:"trainingRequired"`
}

// Details returns the amendable fields of e.
func (e *Equipment) Details() Details {
	return Details{
		Description:             e.Description,
		Specifications:          e.Specifications,
		Condition:               e.Condition,
		EstimatedValue:          e.EstimatedValue,
		MaintenanceRequirements: e.MaintenanceRequirements,
		TrainingRequired:        e.TrainingRequired,
	}
}

// ApplyDetails overwrites every amendable field of e with d.
func (e *Equipment) ApplyDetails(d Details) {
	e.Description = d.Description
	e.Specifications = d.Specifications
	e.Condition = d.Condition
	e.EstimatedValue = d.EstimatedValue
	e.MaintenanceRequirements = d.MaintenanceRequirements
	e.TrainingRequired = d.TrainingRequired
}

// RegistryCounter persists a named monotonically increasing sequence.
type RegistryCounter struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null"`
}
