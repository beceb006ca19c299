package qdrant

import (
	"fmt"
	"sort"
	"strings"
)

const (
	filterOpAnd = "$and"
	filterOpIn  = "$in"
	filterOpEq  = "$eq"
	filterOpNe  = "$ne"
)

// translateFilter converts the generic filter map used by callers into a
// Qdrant filter object with must/must_not conditions. Supported shapes:
//
//	{"geo": "de"}                          plain equality
//	{"element_type": {"$in": [...]}}       membership
//	{"status": {"$ne": "archived"}}        exclusion
//	{"$and": [ {...}, {...} ]}             conjunction of sub-filters
//
// Anything else is rejected with an unsupported_filter error rather than
// silently matching too much.
func translateFilter(filter map[string]any) (map[string]any, error) {
	must, mustNot, err := translateConditions(filter)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if len(must) > 0 {
		out["must"] = must
	}
	if len(mustNot) > 0 {
		out["must_not"] = mustNot
	}
	return out, nil
}

func translateConditions(filter map[string]any) (must []any, mustNot []any, err error) {
	if len(filter) == 0 {
		return nil, nil, nil
	}

	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := filter[key]
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}

		if strings.HasPrefix(k, "$") {
			if strings.ToLower(k) != filterOpAnd {
				return nil, nil, opErr(
					"filter_translate",
					OperationErrorUnsupportedFilter,
					fmt.Sprintf("unsupported top-level filter operator %q", k),
					nil,
				)
			}
			items, ok := value.([]any)
			if !ok {
				return nil, nil, opErr(
					"filter_translate",
					OperationErrorValidation,
					fmt.Sprintf("operator %s expects array of objects", filterOpAnd),
					nil,
				)
			}
			for _, item := range items {
				sub, ok := item.(map[string]any)
				if !ok {
					return nil, nil, opErr(
						"filter_translate",
						OperationErrorValidation,
						fmt.Sprintf("operator %s expects array of objects", filterOpAnd),
						nil,
					)
				}
				subMust, subMustNot, err := translateConditions(sub)
				if err != nil {
					return nil, nil, err
				}
				must = append(must, subMust...)
				mustNot = append(mustNot, subMustNot...)
			}
			continue
		}

		fieldMust, fieldMustNot, err := translateFieldCondition(k, value)
		if err != nil {
			return nil, nil, err
		}
		must = append(must, fieldMust...)
		mustNot = append(mustNot, fieldMustNot...)
	}
	return must, mustNot, nil
}

func translateFieldCondition(field string, value any) (must []any, mustNot []any, err error) {
	ops, isOpMap := value.(map[string]any)
	if !isOpMap {
		scalar, ok := toScalarValue(value)
		if !ok {
			return nil, nil, opErr(
				"filter_translate",
				OperationErrorValidation,
				fmt.Sprintf("field %q expects scalar value or operator object", field),
				nil,
			)
		}
		return []any{matchCondition(field, scalar)}, nil, nil
	}

	opNames := make([]string, 0, len(ops))
	for op := range ops {
		opNames = append(opNames, op)
	}
	sort.Strings(opNames)

	for _, op := range opNames {
		opVal := ops[op]
		switch strings.ToLower(strings.TrimSpace(op)) {
		case filterOpEq:
			scalar, ok := toScalarValue(opVal)
			if !ok {
				return nil, nil, opErr(
					"filter_translate",
					OperationErrorValidation,
					fmt.Sprintf("operator %s for field %q expects scalar value", filterOpEq, field),
					nil,
				)
			}
			must = append(must, matchCondition(field, scalar))
		case filterOpNe:
			scalar, ok := toScalarValue(opVal)
			if !ok {
				return nil, nil, opErr(
					"filter_translate",
					OperationErrorValidation,
					fmt.Sprintf("operator %s for field %q expects scalar value", filterOpNe, field),
					nil,
				)
			}
			mustNot = append(mustNot, matchCondition(field, scalar))
		case filterOpIn:
			values, err := toScalarSlice(opVal)
			if err != nil {
				return nil, nil, opErr(
					"filter_translate",
					OperationErrorValidation,
					fmt.Sprintf("operator %s for field %q expects scalar array", filterOpIn, field),
					err,
				)
			}
			if len(values) == 0 {
				return nil, nil, opErr(
					"filter_translate",
					OperationErrorValidation,
					fmt.Sprintf("operator %s for field %q cannot be empty", filterOpIn, field),
					nil,
				)
			}
			must = append(must, map[string]any{
				"key": field,
				"match": map[string]any{
					"any": values,
				},
			})
		default:
			return nil, nil, opErr(
				"filter_translate",
				OperationErrorUnsupportedFilter,
				fmt.Sprintf("unsupported filter operator %q for field %q", op, field),
				nil,
			)
		}
	}
	return must, mustNot, nil
}

func matchCondition(key string, value any) map[string]any {
	return map[string]any{
		"key": key,
		"match": map[string]any{
			"value": value,
		},
	}
}

func toScalarSlice(value any) ([]any, error) {
	switch typed := value.(type) {
	case []any:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			scalar, ok := toScalarValue(v)
			if !ok {
				return nil, fmt.Errorf("expected scalar, got %T", v)
			}
			out = append(out, scalar)
		}
		return out, nil
	case []string:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, nil
	case []int:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected scalar array, got %T", value)
	}
}

func toScalarValue(value any) (any, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case bool:
		return typed, true
	case int:
		return typed, true
	case int32:
		return int(typed), true
	case int64:
		return typed, true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return nil, false
	}
}
