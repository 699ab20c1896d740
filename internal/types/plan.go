package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GoalType string

const (
	GoalTypeShortTerm GoalType = "short_term"
	GoalTypeLongTerm  GoalType = "long_term"
)

// DualText pairs the clinical phrasing of a field with its client-facing
// phrasing. Both sides are diffed independently.
type DualText struct {
	Clinical     string `json:"clinical"`
	ClientFacing string `json:"client_facing"`
}

// Plan list items carry a stable id assigned at creation and never reused, so
// diffs reconcile by identity rather than list position.

type Goal struct {
	ID           uuid.UUID `json:"id"`
	Goal         string    `json:"goal"`
	Type         GoalType  `json:"type"`
	ClientFacing string    `json:"client_facing"`
	TargetDate   string    `json:"target_date"`
}

type Intervention struct {
	ID           uuid.UUID `json:"id"`
	Intervention string    `json:"intervention"`
	ClientFacing string    `json:"client_facing"`
	Frequency    string    `json:"frequency"`
}

type HomeworkItem struct {
	ID           uuid.UUID `json:"id"`
	Task         string    `json:"task"`
	ClientFacing string    `json:"client_facing"`
	Frequency    string    `json:"frequency"`
}

type Strength struct {
	ID           uuid.UUID `json:"id"`
	Strength     string    `json:"strength"`
	ClientFacing string    `json:"client_facing"`
}

// PlanContent is one immutable snapshot of a treatment plan's structured
// content.
type PlanContent struct {
	PresentingConcerns  DualText       `json:"presenting_concerns"`
	ClinicalImpressions DualText       `json:"clinical_impressions"`
	Goals               []Goal         `json:"goals"`
	Interventions       []Intervention `json:"interventions"`
	Homework            []HomeworkItem `json:"homework"`
	Strengths           []Strength     `json:"strengths"`
	RiskFactors         []string       `json:"risk_factors"`
}

// PlanVersion is the persisted snapshot record; the storage layer owns it and
// hands decoded PlanContent pairs to the differ.
type PlanVersion struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ClientID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_plan_version,unique,priority:1" json:"client_id"`
	Version   int            `gorm:"column:version;not null;index:idx_plan_version,unique,priority:2" json:"version"`
	Content   datatypes.JSON `gorm:"type:jsonb;column:content;not null" json:"content"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (PlanVersion) TableName() string { return "plan_version" }
