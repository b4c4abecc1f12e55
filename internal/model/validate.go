package model

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	vOnce sync.Once
	vInst *validator.Validate

	byDayRE = regexp.MustCompile(`^[+-]?(?:[1-9]|[1-4][0-9]|5[0-3])?(MO|TU|WE|TH|FR|SA|SU)$`)
)

// validate returns the shared validator, built on first use.
func validate() *validator.Validate {
	vOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// report json names in field errors
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = v.RegisterValidation("byday", func(fl validator.FieldLevel) bool {
			return byDayRE.MatchString(fl.Field().String())
		})

		vInst = v
	})
	return vInst
}

// Validate checks a record's struct-level invariants (required fields,
// numeric ranges, StartTime < EndTime, enum values). It accepts any of the
// record types in this package, or a RecurrenceRule.
func Validate(rec any) error {
	return validate().Struct(rec)
}

// IsValidWeekdayCode reports whether s is an RFC 5545 BYDAY value.
func IsValidWeekdayCode(s string) bool {
	return byDayRE.MatchString(s)
}
