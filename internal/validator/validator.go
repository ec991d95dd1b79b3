// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"captable/internal/uuid"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("uuid7", validateUUID)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("share_class_kind", validateShareClassKind)
		_ = v.RegisterValidation("shareholder_kind", validateShareholderKind)
		_ = v.RegisterValidation("shareholder_status", validateShareholderStatus)
		_ = v.RegisterValidation("company_status", validateCompanyStatus)
		_ = v.RegisterValidation("granularity", validateGranularity)
	}
}

func validateUUID(fl validator.FieldLevel) bool {
	return uuid.IsValid(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "ISSUANCE", "TRANSFER", "CANCELLATION", "CONVERSION", "SPLIT":
		return true
	}
	return false
}

func validateShareClassKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "common", "preferred", "quota":
		return true
	}
	return false
}

func validateShareholderKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "individual", "entity":
		return true
	}
	return false
}

func validateShareholderStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "active", "inactive":
		return true
	}
	return false
}

func validateCompanyStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "active", "suspended", "closed":
		return true
	}
	return false
}

func validateGranularity(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "day", "week", "month":
		return true
	}
	return false
}
