// Package validation はリクエストDTOとインポート入力の構造体検証を提供する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/optimaflow/internal/model"
)

// Validator はvalidator/v10のラッパー。検証失敗はmodel.APIErrorに変換して返す。
// *validator.Validateはスレッドセーフで、構造体情報をキャッシュするため使い回す。
type Validator struct {
	validate *validator.Validate
}

// New はカスタムルールを登録したValidatorを生成する。
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// エラーのフィールド名をJSONのキー名にする
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	RegisterValidators(v)
	return &Validator{validate: v}
}

// RegisterValidators はドメイン固有のルールを登録する。
func RegisterValidators(v *validator.Validate) {
	v.RegisterValidation("notblank", validateNotBlank)
	v.RegisterValidation("opportunity_status", validateOpportunityStatus)
	v.RegisterValidation("activity_type", validateActivityType)
	v.RegisterValidation("dealership_status", validateDealershipStatus)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateOpportunityStatus(fl validator.FieldLevel) bool {
	return model.OpportunityStatus(fl.Field().String()).Valid()
}

func validateActivityType(fl validator.FieldLevel) bool {
	return model.ActivityType(fl.Field().String()).Valid()
}

func validateDealershipStatus(fl validator.FieldLevel) bool {
	return model.DealershipStatus(fl.Field().String()).Valid()
}

// Struct は構造体を検証する。失敗した場合はフィールド一覧を含むValidationErrorを返す。
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate: %w", err)
	}
	return model.NewFieldValidationError(FormatValidationError(validationErrors))
}

// FormatValidationError は検証エラーを "field (rule)" 形式の一覧に変換する。
// ネストしたフィールドは "leads[0].companyName" のように表す。
func FormatValidationError(errs validator.ValidationErrors) []string {
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		field := e.Namespace()
		// 先頭の構造体名を除く
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if e.Param() != "" {
			fields = append(fields, fmt.Sprintf("%s (%s=%s)", field, e.Tag(), e.Param()))
		} else {
			fields = append(fields, fmt.Sprintf("%s (%s)", field, e.Tag()))
		}
	}
	return fields
}
