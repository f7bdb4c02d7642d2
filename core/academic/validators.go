package academic

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/registro/core"
)

var (
	studyFormTag  = "studyform"
	studyFormText = "invalid study form"

	gradeTypeTag  = "gradetype"
	gradeTypeText = "invalid grade type"
)

// InitValidators registers the academic validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(studyFormTag, func(fl validator.FieldLevel) bool {
		return StudyForm(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, studyFormTag, studyFormText)

	_ = validate.RegisterValidation(gradeTypeTag, func(fl validator.FieldLevel) bool {
		return GradeType(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, gradeTypeTag, gradeTypeText)
}
