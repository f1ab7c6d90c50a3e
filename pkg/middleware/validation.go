package middleware

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/wms-platform/shipment-service/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	enumMu     sync.RWMutex
	enumValues = map[string][]string{}
)

// InitValidator configures both the standalone validator and gin's binding engine
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")
		configure(validate)

		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			configure(v)
		}
	})

	return validate
}

func configure(v *validator.Validate) {
	// decimals validate as float64 so gte/lte/gt apply to them directly
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("safe_string", validateSafeString)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// RegisterEnum registers a validation tag accepting exactly the given values.
// Must be called before the first request is bound.
func RegisterEnum(tag string, values ...string) {
	InitValidator()

	enumMu.Lock()
	enumValues[tag] = append([]string(nil), values...)
	enumMu.Unlock()

	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	fn := func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	}

	_ = validate.RegisterValidation(tag, fn)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation(tag, fn)
	}
}

// GetValidator returns the singleton validator instance
func GetValidator() *validator.Validate {
	return InitValidator()
}

func validateSafeString(fl validator.FieldLevel) bool {
	return !strings.ContainsRune(fl.Field().String(), '\x00')
}

// ValidationErrorFormatter formats validation errors into a map
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			fields[fieldPath(e)] = formatValidationError(e)
		}
	}

	return fields
}

// fieldPath drops the root struct name from the namespace: Cmd.packages[0].weight -> packages[0].weight
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func formatValidationError(e validator.FieldError) string {
	enumMu.RLock()
	values, isEnum := enumValues[e.Tag()]
	enumMu.RUnlock()
	if isEnum {
		return "must be one of: " + strings.Join(values, ", ")
	}

	switch e.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "is required when " + e.Param() + " is absent"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "safe_string":
		return "contains invalid characters"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// BindAndValidate binds the JSON request body and validates it
func BindAndValidate(c *gin.Context, obj interface{}) *errors.AppError {
	if err := c.ShouldBindJSON(obj); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
		}
		return errors.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// BindQueryAndValidate binds query parameters and validates them
func BindQueryAndValidate(c *gin.Context, obj interface{}) *errors.AppError {
	if err := c.ShouldBindQuery(obj); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
		}
		return errors.ErrBadRequest("invalid query parameters: " + err.Error())
	}
	return nil
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// InputSanitizer middleware sanitizes query parameters
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		for key, values := range query {
			for i, v := range values {
				values[i] = SanitizeString(v)
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()

		c.Next()
	}
}

// ContentType middleware ensures proper content type for POST/PUT/PATCH
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "POST" || c.Request.Method == "PUT" || c.Request.Method == "PATCH" {
			contentType := c.GetHeader("Content-Type")
			if !strings.HasPrefix(contentType, "application/json") && c.Request.ContentLength > 0 {
				AbortWithAppError(c, &errors.AppError{
					Code:       "INVALID_CONTENT_TYPE",
					Message:    "Content-Type must be application/json",
					HTTPStatus: 415,
				})
				return
			}
		}
		c.Next()
	}
}
