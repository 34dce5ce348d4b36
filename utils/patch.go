package utils

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ChangedColumns turns a patch struct of pointer fields into a gorm Updates map.
// Only non-nil pointers are kept, keyed by their json tag. Strings are trimmed and
// decimals rounded to cents, so the map can be written as is.
func ChangedColumns(patch any) map[string]any {
	res := make(map[string]any)
	v := reflect.ValueOf(patch)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return res
	}
	s := v.Elem()
	if s.Kind() != reflect.Struct {
		return res
	}
	t := s.Type()
	for i := 0; i < t.NumField(); i++ {
		fv := s.Field(i)
		if fv.Kind() != reflect.Ptr || fv.IsNil() {
			continue
		}
		column := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if column == "" || column == "-" {
			continue
		}
		elem := fv.Elem()
		switch {
		case elem.Kind() == reflect.String:
			res[column] = strings.TrimSpace(elem.String())
		case elem.Type() == decimalType:
			res[column] = Round2(elem.Interface().(decimal.Decimal))
		default:
			res[column] = elem.Interface()
		}
	}
	return res
}

// QueryInt parses a non-negative integer query value, falling back to def.
func QueryInt(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= 0 {
		return v
	}
	return def
}

// QueryID parses an optional id filter; zero means "no filter".
func QueryID(s string) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
