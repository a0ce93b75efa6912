package state

import (
	"strings"

	"github.com/verte-zerg/shottrack/internal/model"
)

// ShotInput is a shot as entered by the user, before an id and timestamp are
// assigned. Empty attributes are left unset.
type ShotInput struct {
	Coordinates      *model.Point       `json:"coordinates" validate:"required"`
	Made             bool               `json:"made"`
	ShotValue        model.ShotValue    `json:"shotValue" validate:"omitempty,oneof=2 3"`
	ContestLevel     string             `json:"contestLevel" validate:"omitempty,builtin=contestLevel"`
	ShotCreationType string             `json:"shotCreationType" validate:"omitempty,builtin=shotCreationType"`
	DefenseType      string             `json:"defenseType" validate:"omitempty,builtin=defenseType"`
	ShotType         string             `json:"shotType" validate:"omitempty,builtin=shotType"`
	PostMove         string             `json:"postMove" validate:"omitempty,builtin=postMove"`
	DribbleCount     int                `json:"dribbleCount" validate:"gte=0,lte=99"`
	CustomFields     model.CustomFields `json:"customFields"`
}

// AddShot validates and records a shot. Coordinates are required; a missing
// shot value is suggested from the segment they fall in.
func (s *State) AddShot(in ShotInput) (model.Shot, error) {
	if err := s.check(in); err != nil {
		return model.Shot{}, err
	}
	if !inRange(in.Coordinates.X) || !inRange(in.Coordinates.Y) {
		return model.Shot{}, invalidf("coordinates (%.2f, %.2f) outside the court", in.Coordinates.X, in.Coordinates.Y)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fields, err := checkCustomFields(in.CustomFields, s.params)
	if err != nil {
		return model.Shot{}, err
	}
	shot := model.Shot{
		ID:               s.newID(),
		Made:             in.Made,
		ShotValue:        in.ShotValue,
		ContestLevel:     in.ContestLevel,
		ShotCreationType: in.ShotCreationType,
		DefenseType:      in.DefenseType,
		ShotType:         in.ShotType,
		PostMove:         in.PostMove,
		DribbleCount:     in.DribbleCount,
		CustomFields:     fields,
		Timestamp:        s.now().UTC(),
	}
	p := *in.Coordinates
	shot.Coordinates = &p
	if shot.ShotValue == "" {
		shot.ShotValue = s.table.SuggestValue(p)
	}
	s.shots = append(s.shots, shot)
	s.markDirty(CollectionShots)
	s.publishSizes()
	return shot.Clone(), nil
}

// DeleteShot removes the shot with the given id.
func (s *State) DeleteShot(id model.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, shot := range s.shots {
		if shot.ID != id {
			continue
		}
		s.shots = append(s.shots[:i:i], s.shots[i+1:]...)
		s.markDirty(CollectionShots)
		s.publishSizes()
		return true
	}
	return false
}

// ClearShots removes every shot.
func (s *State) ClearShots() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shots = nil
	s.markDirty(CollectionShots)
	s.publishSizes()
}

// ReplaceShots swaps the whole shot collection.
func (s *State) ReplaceShots(shots []model.Shot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shots = cloneShots(shots)
	s.markDirty(CollectionShots)
	s.publishSizes()
}

func inRange(v float64) bool {
	return v >= 0 && v <= 100
}

// checkCustomFields validates values against the current definitions and
// drops empty ones. Must be called with mu held.
func checkCustomFields(fields model.CustomFields, params []model.CustomParameter) (model.CustomFields, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	out := make(model.CustomFields, len(fields))
	for name, value := range fields {
		p, ok := findParamByName(params, name)
		if !ok {
			return nil, invalidf("unknown custom parameter %q", name)
		}
		if text, isText := value.Text(); isText && strings.TrimSpace(text) == "" {
			continue
		}
		switch p.Type {
		case model.ParameterCategorical:
			text, isText := value.Text()
			if !isText {
				return nil, invalidf("%s expects one of its options", name)
			}
			if len(p.Options) > 0 && !contains(p.Options, text) {
				return nil, invalidf("%q is not an option of %s", text, name)
			}
			out[name] = model.TextValue(text)
		case model.ParameterNumeric:
			n, isInt := value.Int()
			if !isInt {
				return nil, invalidf("%s expects a whole number", name)
			}
			if n < int64(p.Min) || n > int64(p.Max) {
				return nil, invalidf("%s must be between %d and %d", name, p.Min, p.Max)
			}
			out[name] = model.NumberValue(n)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func findParamByName(params []model.CustomParameter, name string) (model.CustomParameter, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return model.CustomParameter{}, false
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
