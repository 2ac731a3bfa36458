package completion

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/yungbote/neurobridge-completion/internal/domain/aggregates"
)

const opValidate = "completion.validate"

// Validate accepts finite fractions in [0.0, 1.0].
func Validate(value float64) error {
	switch {
	case math.IsNaN(value):
		return aggregates.NewError(aggregates.CodeValidation, opValidate, "completion is NaN", nil)
	case math.IsInf(value, 0):
		return aggregates.NewError(aggregates.CodeValidation, opValidate, "completion is infinite", nil)
	case value < 0.0 || value > 1.0:
		return aggregates.NewError(aggregates.CodeValidation, opValidate,
			fmt.Sprintf("%s must be between 0.0 and 1.0", strconv.FormatFloat(value, 'g', -1, 64)), nil)
	}
	return nil
}

// Coerce converts any Go numeric value (including integer 0 and 1) to a
// fraction and validates it. Non-numeric input, nil included, is rejected.
func Coerce(value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, aggregates.NewError(aggregates.CodeValidation, opValidate, "completion is not numeric", err)
		}
		f = parsed
	default:
		return 0, aggregates.NewError(aggregates.CodeValidation, opValidate,
			fmt.Sprintf("completion must be numeric, got %T", value), nil)
	}
	if err := Validate(f); err != nil {
		return 0, err
	}
	return f, nil
}
