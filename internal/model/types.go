// Package model defines shared data structures.
package model

import "time"

// ShotValue is the point value of an attempt.
type ShotValue string

const (
	ShotValueTwo   ShotValue = "2"
	ShotValueThree ShotValue = "3"
)

// Valid reports whether v is a known shot value.
func (v ShotValue) Valid() bool {
	return v == ShotValueTwo || v == ShotValueThree
}

// Point is a position on the normalized court image, in percent of width and height.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shot is one recorded attempt.
type Shot struct {
	ID               ID           `json:"id"`
	Coordinates      *Point       `json:"coordinates,omitempty"`
	Made             bool         `json:"made"`
	ShotValue        ShotValue    `json:"shotValue,omitempty"`
	ContestLevel     string       `json:"contestLevel,omitempty"`
	ShotCreationType string       `json:"shotCreationType,omitempty"`
	DefenseType      string       `json:"defenseType,omitempty"`
	ShotType         string       `json:"shotType,omitempty"`
	PostMove         string       `json:"postMove,omitempty"`
	DribbleCount     int          `json:"dribbleCount"`
	CustomFields     CustomFields `json:"customFields,omitempty"`
	Timestamp        time.Time    `json:"timestamp"`
}

// Attribute returns the value of a built-in attribute, or "" when unset or unknown.
func (s Shot) Attribute(key string) string {
	switch key {
	case AttrShotValue:
		return string(s.ShotValue)
	case AttrContestLevel:
		return s.ContestLevel
	case AttrShotCreationType:
		return s.ShotCreationType
	case AttrDefenseType:
		return s.DefenseType
	case AttrShotType:
		return s.ShotType
	case AttrPostMove:
		return s.PostMove
	default:
		return ""
	}
}

// Clone returns a deep copy of the shot.
func (s Shot) Clone() Shot {
	out := s
	if s.Coordinates != nil {
		p := *s.Coordinates
		out.Coordinates = &p
	}
	if s.CustomFields != nil {
		out.CustomFields = make(CustomFields, len(s.CustomFields))
		for k, v := range s.CustomFields {
			out.CustomFields[k] = v
		}
	}
	return out
}

// ParameterType distinguishes categorical and numeric custom parameters.
type ParameterType string

const (
	ParameterCategorical ParameterType = "categorical"
	ParameterNumeric     ParameterType = "numeric"
)

// CustomParameter is a user-defined tracking dimension. Shots reference it by Name.
type CustomParameter struct {
	ID      ID            `json:"id"`
	Name    string        `json:"name"`
	Type    ParameterType `json:"type"`
	Options []string      `json:"options,omitempty"`
	Min     int           `json:"min"`
	Max     int           `json:"max"`
	Icon    string        `json:"icon,omitempty"`
}

// Clone returns a deep copy of the parameter.
func (p CustomParameter) Clone() CustomParameter {
	out := p
	if p.Options != nil {
		out.Options = append([]string(nil), p.Options...)
	}
	return out
}

// StatsFilter narrows the shots fed into the stats views.
type StatsFilter struct {
	Since     *time.Time
	ShotValue ShotValue
}
