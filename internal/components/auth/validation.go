package auth

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zhtranslations "github.com/go-playground/validator/v10/translations/zh"
)

var (
	validate *validator.Validate
	trans    ut.Translator

	// messages are keyed by "<field>.<tag>"
	messages = map[string]string{
		"username.required": "请输入昵称",
		"email.required":    "请输入手机号或邮箱",
		"email.email":       "请输入正确的邮箱",
		"password.required": "请输入密码",
		"password.min":      "密码至少6位!",
	}
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	zhLocale := zh.New()
	trans, _ = ut.New(zhLocale, zhLocale).GetTranslator("zh")
	if err := zhtranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic("auth: register validation translations: " + err.Error())
	}
}

// ValidateCredentials checks the sign-in values
func ValidateCredentials(c Credentials) FieldErrors {
	return validateStruct(c)
}

// ValidateRegistration checks the sign-up values
func ValidateRegistration(r Registration) FieldErrors {
	return validateStruct(r)
}

func validateStruct(s any) FieldErrors {
	errs := FieldErrors{}

	err := validate.Struct(s)
	if err == nil {
		return errs
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// only reachable when s is not a struct
		panic(err)
	}

	for _, fe := range validationErrors {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		errs[fe.Field()] = formatFieldError(fe)
	}
	return errs
}

func formatFieldError(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fe.Translate(trans)
}
