// Package shared wires the dependencies common to every app.
package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/user"
)

// NewValidator returns a validator knowing every custom tag of the domain, and its English translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	academic.InitValidators(validate, translator)
	return validate, translator
}
