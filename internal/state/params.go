package state

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/verte-zerg/shottrack/internal/model"
)

// DefaultIcon is shown for parameters created without one.
const DefaultIcon = "📊"

// ParameterInput describes a parameter to create or the new state of one
// being edited.
type ParameterInput struct {
	Name    string              `json:"name" validate:"required,max=64"`
	Type    model.ParameterType `json:"type" validate:"required,oneof=categorical numeric"`
	Options []string            `json:"options"`
	Min     int                 `json:"min"`
	Max     int                 `json:"max"`
	Icon    string              `json:"icon" validate:"max=16"`
}

// AddParameter validates and appends a parameter definition.
func (s *State) AddParameter(in ParameterInput) (model.CustomParameter, error) {
	p, err := s.normalizeParameter(in)
	if err != nil {
		return model.CustomParameter{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := findParamByName(s.params, p.Name); ok {
		return model.CustomParameter{}, invalidf("parameter %q already exists", p.Name)
	}
	p.ID = s.newID()
	s.params = append(s.params, p)
	s.markDirty(CollectionParameters)
	s.publishSizes()
	return p.Clone(), nil
}

// UpdateParameter replaces the definition with the given id, keeping the id.
// Values recorded under a previous name are kept on the shots but no longer
// aggregated.
func (s *State) UpdateParameter(id model.ID, in ParameterInput) (model.CustomParameter, error) {
	p, err := s.normalizeParameter(in)
	if err != nil {
		return model.CustomParameter{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, existing := range s.params {
		if existing.ID == id {
			idx = i
			continue
		}
		if existing.Name == p.Name {
			return model.CustomParameter{}, invalidf("parameter %q already exists", p.Name)
		}
	}
	if idx < 0 {
		return model.CustomParameter{}, errors.Wrapf(ErrNotFound, "parameter %s", id)
	}
	p.ID = id
	s.params[idx] = p
	s.markDirty(CollectionParameters)
	return p.Clone(), nil
}

// DeleteParameter removes the definition with the given id. Recorded values
// stay on the shots.
func (s *State) DeleteParameter(id model.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.params {
		if p.ID != id {
			continue
		}
		s.params = append(s.params[:i:i], s.params[i+1:]...)
		s.markDirty(CollectionParameters)
		s.publishSizes()
		return true
	}
	return false
}

// ReplaceParameters swaps the whole parameter collection.
func (s *State) ReplaceParameters(params []model.CustomParameter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = cloneParams(params)
	s.markDirty(CollectionParameters)
	s.publishSizes()
}

func (s *State) normalizeParameter(in ParameterInput) (model.CustomParameter, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Icon = strings.TrimSpace(in.Icon)
	if err := s.check(in); err != nil {
		return model.CustomParameter{}, err
	}
	p := model.CustomParameter{Name: in.Name, Type: in.Type, Icon: in.Icon}
	if p.Icon == "" {
		p.Icon = DefaultIcon
	}
	switch in.Type {
	case model.ParameterCategorical:
		seen := map[string]struct{}{}
		for _, opt := range in.Options {
			opt = strings.TrimSpace(opt)
			if opt == "" {
				continue
			}
			if _, dup := seen[opt]; dup {
				continue
			}
			seen[opt] = struct{}{}
			p.Options = append(p.Options, opt)
		}
		if len(p.Options) == 0 {
			return model.CustomParameter{}, invalidf("categorical parameter %q needs at least one option", p.Name)
		}
	case model.ParameterNumeric:
		if in.Min >= in.Max {
			return model.CustomParameter{}, invalidf("numeric parameter %q needs min < max", p.Name)
		}
		p.Min, p.Max = in.Min, in.Max
	}
	return p, nil
}
