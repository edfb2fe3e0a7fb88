// Package validator registers the request validation tags used in model
// binding tags on gin's validator engine.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"

	"github.com/jwalitptl/ehr-booking/internal/model"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9. ()-]{7,25}$`)

func oneOf[T ~string](values ...T) playground.Func {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[string(v)] = struct{}{}
	}
	return func(fl playground.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	}
}

var validations = map[string]playground.Func{
	"phone": func(fl playground.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	},
	"gender": oneOf(model.GenderMale, model.GenderFemale),
	"blood_group": oneOf(
		model.BloodGroupAPositive, model.BloodGroupANegative,
		model.BloodGroupBPositive, model.BloodGroupBNegative,
		model.BloodGroupABPositive, model.BloodGroupABNegative,
		model.BloodGroupOPositive, model.BloodGroupONegative,
	),
	"genotype": oneOf(model.GenotypeAA, model.GenotypeAS, model.GenotypeAC, model.GenotypeSS, model.GenotypeSC),
	"marital_status": oneOf(
		model.MaritalStatusSingle, model.MaritalStatusMarried,
		model.MaritalStatusDivorced, model.MaritalStatusWidowed,
	),
	"staff_role": oneOf(model.StaffRoleDoctor, model.StaffRoleReceptionist, model.StaffRoleAdmin),
	"appointment_status": oneOf(
		model.AppointmentStatusScheduled, model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled, model.AppointmentStatusNoShow,
	),
}

// Register installs the custom tags on v.
func Register(v *playground.Validate) error {
	v.RegisterTagNameFunc(jsonName)
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validation: %w", tag, err)
		}
	}
	return nil
}

// RegisterWithGin installs the custom tags on gin's default binding engine.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*playground.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return Register(v)
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// Describe turns a binding error into a client-facing message.
func Describe(err error) string {
	var verrs playground.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describeField(fe))
		}
		return strings.Join(msgs, "; ")
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return "request body is not valid JSON"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%s has the wrong type", typeErr.Field)
	}
	return "invalid request"
}

func describeField(fe playground.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "phone":
		return field + " must be a valid phone number"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	}
	return fmt.Sprintf("%s has an invalid value", field)
}
