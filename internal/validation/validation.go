// Package validation wraps go-playground/validator with the request schemas'
// conventions: errors are keyed by JSON field name and carry a short
// human readable message.
package validation

import (
    "errors"
    "fmt"
    "reflect"
    "sort"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/shopspring/decimal"
)

// Error lists every failing field of a request.  Keys are JSON paths such
// as "payment.method".
type Error struct {
    Fields map[string]string
}

func (e *Error) Error() string {
    keys := make([]string, 0, len(e.Fields))
    for k := range e.Fields {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    parts := make([]string, 0, len(keys))
    for _, k := range keys {
        parts = append(parts, k+": "+e.Fields[k])
    }
    return "validation failed: " + strings.Join(parts, "; ")
}

// NewError builds an Error for a single field.
func NewError(field, msg string) *Error {
    return &Error{Fields: map[string]string{field: msg}}
}

// Validator is safe for concurrent use; validator caches struct metadata.
type Validator struct {
    v *validator.Validate
}

// New returns a Validator that reports JSON field names and validates
// decimal.Decimal values as numbers.
func New() *Validator {
    v := validator.New()
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        if name == "" {
            return f.Name
        }
        return name
    })
    v.RegisterCustomTypeFunc(func(f reflect.Value) any {
        d, ok := f.Interface().(decimal.Decimal)
        if !ok {
            return nil
        }
        fl, _ := d.Float64()
        return fl
    }, decimal.Decimal{})
    return &Validator{v: v}
}

var std = New()

// Struct validates s with the package validator.
func Struct(s any) error { return std.Struct(s) }

// Var validates a single value and reports failures under field.
func Var(field string, value any, tag string) error { return std.Var(field, value, tag) }

// Struct validates s and converts failures into *Error.
func (cv *Validator) Struct(s any) error {
    return cv.convert(cv.v.Struct(s), "")
}

// Var validates value against tag.
func (cv *Validator) Var(field string, value any, tag string) error {
    return cv.convert(cv.v.Var(value, tag), field)
}

// Validate satisfies echo.Validator.
func (cv *Validator) Validate(i any) error {
    return cv.Struct(i)
}

func (cv *Validator) convert(err error, field string) error {
    if err == nil {
        return nil
    }
    var ves validator.ValidationErrors
    if !errors.As(err, &ves) {
        return err
    }
    out := &Error{Fields: make(map[string]string, len(ves))}
    for _, fe := range ves {
        key := field
        if key == "" {
            key = fieldPath(fe)
        }
        if _, seen := out.Fields[key]; !seen {
            out.Fields[key] = message(fe)
        }
    }
    return out
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
    ns := fe.Namespace()
    if i := strings.IndexByte(ns, '.'); i >= 0 {
        return ns[i+1:]
    }
    return fe.Field()
}

func message(fe validator.FieldError) string {
    numeric := false
    switch fe.Kind() {
    case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
        reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
        reflect.Float32, reflect.Float64:
        numeric = true
    }

    switch fe.Tag() {
    case "required":
        return "is required"
    case "email":
        return "must be a valid email address"
    case "uuid", "uuid4":
        return "must be a valid UUID"
    case "url":
        return "must be a valid URL"
    case "oneof":
        return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
    case "min":
        if numeric {
            return "must be at least " + fe.Param()
        }
        return fmt.Sprintf("must be at least %s characters", fe.Param())
    case "max":
        if numeric {
            return "must be at most " + fe.Param()
        }
        return fmt.Sprintf("must be at most %s characters", fe.Param())
    case "gte":
        return "must be greater than or equal to " + fe.Param()
    case "lte":
        return "must be less than or equal to " + fe.Param()
    }
    return "is invalid"
}
