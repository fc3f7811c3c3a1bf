package forge

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Expression-prefix grammar (§6): "C#|<expr>" evaluates with an inferred or
// caller-supplied known type; "C#<Typename>|<expr>" names the type itself,
// subject to a known type taking priority.
const exprPrefix = "C#"

// primitiveTypeNamespace resolves a "C#<Typename>|" type name against the
// host's standard primitive namespace (§6: "must resolve to a primitive type
// of the host's standard numeric/boolean/string namespace").
var primitiveTypeNamespace = map[string]reflect.Type{
	"string":  reflect.TypeOf(""),
	"bool":    reflect.TypeOf(false),
	"int":     reflect.TypeOf(int(0)),
	"int64":   reflect.TypeOf(int64(0)),
	"float64": reflect.TypeOf(float64(0)),
	"float32": reflect.TypeOf(float32(0)),
}

// Evaluator recursively resolves SchemaValues against a known Go type,
// delegating embedded expressions and external-executor-prefixed strings to
// injected capabilities (§4.7). It is the largest single component of the
// core: every node property, action input, action property, timeout, and
// child-selector guard passes through it.
type Evaluator struct {
	expr      ExpressionExecutor
	externals map[string]ExternalExecutor
	session   Session
}

// NewEvaluator builds an Evaluator bound to a session's injected
// capabilities. expr may be nil if the schema contains no expressions;
// externals may be nil or empty.
func NewEvaluator(expr ExpressionExecutor, externals map[string]ExternalExecutor, session Session) *Evaluator {
	return &Evaluator{expr: expr, externals: externals, session: session}
}

// Evaluate resolves value against knownType (nil if none is known), in the
// case order of §4.7. Any failure other than ctx cancellation is wrapped as
// *EvaluateDynamicPropertyError; ctx.Err() propagates unchanged so the
// walker can distinguish cancellation from a genuine evaluation failure.
func (e *Evaluator) Evaluate(ctx context.Context, value SchemaValue, knownType reflect.Type) (any, error) {
	result, err := e.evaluate(ctx, value, knownType)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if _, ok := err.(*EvaluateDynamicPropertyError); ok {
		return nil, err
	}
	return nil, &EvaluateDynamicPropertyError{
		Value:     schemaValueString(value),
		KnownType: knownTypeName(knownType),
		Cause:     err,
	}
}

func (e *Evaluator) evaluate(ctx context.Context, value SchemaValue, knownType reflect.Type) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch value.Kind {
	case KindNull:
		return nil, nil

	case KindString:
		return e.evaluateString(ctx, value.Str, knownType)

	case KindObject:
		return e.evaluateObject(ctx, value, knownType)

	case KindArray:
		return e.evaluateArray(ctx, value, knownType)

	default: // KindNumber, KindBool
		return e.coerceScalar(value, knownType)
	}
}

// evaluateString implements cases 1-3 of §4.7.
func (e *Evaluator) evaluateString(ctx context.Context, s string, knownType reflect.Type) (any, error) {
	if body, effectiveType, ok := parseExpressionPrefix(s, knownType); ok {
		if e.expr == nil {
			return nil, fmt.Errorf("evaluator: expression %q requires an ExpressionExecutor but none is configured", body)
		}
		return e.expr.Execute(ctx, body, effectiveType, e.session)
	}

	for prefix, executor := range e.externals {
		if prefix == "" || !strings.HasPrefix(s, prefix) {
			continue
		}
		payload := strings.TrimPrefix(s, prefix)
		result, err := executor(ctx, payload)
		if err != nil {
			return nil, err
		}
		return coerceAny(result, knownType)
	}

	// Case 3: plain string, returned unchanged whatever knownType is.
	return s, nil
}

// parseExpressionPrefix recognizes "C#|..." and "C#<Typename>|...", returning
// the expression body and the effective known type (knownType wins over the
// embedded <T>, which wins over plain string per §4.7 case 1 / §6).
func parseExpressionPrefix(s string, knownType reflect.Type) (body string, effectiveType reflect.Type, ok bool) {
	if !strings.HasPrefix(s, exprPrefix) {
		return "", nil, false
	}
	rest := s[len(exprPrefix):]

	if strings.HasPrefix(rest, "|") {
		return rest[1:], knownType, true
	}

	if strings.HasPrefix(rest, "<") {
		end := strings.Index(rest, ">")
		if end < 0 {
			return "", nil, false
		}
		typeName := rest[1:end]
		afterType := rest[end+1:]
		if !strings.HasPrefix(afterType, "|") {
			return "", nil, false
		}
		body = afterType[1:]
		if knownType != nil {
			effectiveType = knownType
		} else if t, found := primitiveTypeNamespace[typeName]; found {
			effectiveType = t
		} else {
			effectiveType = reflect.TypeOf("")
		}
		return body, effectiveType, true
	}

	return "", nil, false
}

// evaluateObject implements case 4 of §4.7.
func (e *Evaluator) evaluateObject(ctx context.Context, value SchemaValue, knownType reflect.Type) (any, error) {
	if knownType == nil {
		out := make(map[string]any, len(value.Obj))
		for k, v := range value.Obj {
			evaluated, err := e.evaluate(ctx, v, nil)
			if err != nil {
				return nil, err
			}
			out[k] = evaluated
		}
		return out, nil
	}

	for knownType.Kind() == reflect.Ptr {
		knownType = knownType.Elem()
	}
	if knownType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("evaluator: known type %s is not a struct, cannot materialize object", knownType)
	}

	instance := reflect.New(knownType).Elem()
	for key, v := range value.Obj {
		field, fieldType, found := lookupStructField(knownType, key)
		if !found {
			continue
		}
		evaluated, err := e.evaluate(ctx, v, fieldType)
		if err != nil {
			return nil, err
		}
		assignable := reflect.ValueOf(evaluated)
		target := instance.FieldByIndex(field.Index)
		if evaluated == nil {
			continue
		}
		if assignable.Type().ConvertibleTo(fieldType) {
			target.Set(assignable.Convert(fieldType))
		}
	}
	return instance.Interface(), nil
}

// lookupStructField finds the exported field matching key by exact name,
// then by case-insensitive name, mirroring the forgiving field-name matching
// a schema-bound deserializer typically performs.
func lookupStructField(t reflect.Type, key string) (reflect.StructField, reflect.Type, bool) {
	if f, ok := t.FieldByName(key); ok {
		return f, f.Type, true
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if strings.EqualFold(f.Name, key) {
			return f, f.Type, true
		}
	}
	return reflect.StructField{}, nil, false
}

// evaluateArray implements case 5 of §4.7.
func (e *Evaluator) evaluateArray(ctx context.Context, value SchemaValue, knownType reflect.Type) (any, error) {
	if knownType == nil {
		out := make([]any, len(value.Arr))
		for i, v := range value.Arr {
			evaluated, err := e.evaluate(ctx, v, nil)
			if err != nil {
				return nil, err
			}
			out[i] = evaluated
		}
		return out, nil
	}

	if knownType.Kind() != reflect.Slice && knownType.Kind() != reflect.Array {
		return nil, fmt.Errorf("evaluator: known type %s is not array-like", knownType)
	}
	elemType := knownType.Elem()

	container := reflect.MakeSlice(reflect.SliceOf(elemType), len(value.Arr), len(value.Arr))
	for i, v := range value.Arr {
		evaluated, err := e.evaluate(ctx, v, elemType)
		if err != nil {
			return nil, err
		}
		if evaluated == nil {
			continue
		}
		rv := reflect.ValueOf(evaluated)
		if rv.Type().ConvertibleTo(elemType) {
			container.Index(i).Set(rv.Convert(elemType))
		}
	}
	return container.Interface(), nil
}

// coerceScalar implements case 6 of §4.7 for number/bool SchemaValues.
func (e *Evaluator) coerceScalar(value SchemaValue, knownType reflect.Type) (any, error) {
	native := value.AsGo()
	return coerceAny(native, knownType)
}

// coerceAny converts a plain Go value to knownType when possible, returning
// it verbatim if knownType is nil or conversion is not applicable.
func coerceAny(native any, knownType reflect.Type) (any, error) {
	if knownType == nil || native == nil {
		return native, nil
	}
	rv := reflect.ValueOf(native)
	if rv.Type() == knownType {
		return native, nil
	}
	if rv.Type().ConvertibleTo(knownType) {
		return rv.Convert(knownType).Interface(), nil
	}
	return native, nil
}

func knownTypeName(t reflect.Type) string {
	if t == nil {
		return "<inferred>"
	}
	return t.String()
}

func schemaValueString(v SchemaValue) string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNull:
		return "null"
	default:
		return v.Kind.String()
	}
}
