package state

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/shottrack/internal/model"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// builtin=<key> accepts only the declared options of a built-in attribute.
	if err := v.RegisterValidation("builtin", func(fl validator.FieldLevel) bool {
		attr, ok := model.LookupAttribute(fl.Param())
		if !ok {
			return false
		}
		return attr.HasOption(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func (s *State) check(input any) error {
	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
			}
			return errors.Wrapf(ErrInvalidInput, "invalid %s", strings.Join(fields, ", "))
		}
		return errors.Mark(errors.Wrap(err, "validate"), ErrInvalidInput)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}
