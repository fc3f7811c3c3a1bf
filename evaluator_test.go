package forge

import (
	"context"
	"reflect"
	"testing"
)

func TestEvaluateNull(t *testing.T) {
	eval := NewEvaluator(nil, nil, nil)
	result, err := eval.Evaluate(context.Background(), Null, nil)
	if err != nil {
		t.Fatalf("Evaluate(Null) error = %v", err)
	}
	if result != nil {
		t.Errorf("Evaluate(Null) = %v, want nil", result)
	}
}

func TestEvaluatePlainString(t *testing.T) {
	eval := NewEvaluator(nil, nil, nil)
	result, err := eval.Evaluate(context.Background(), StringValue("hello"), nil)
	if err != nil {
		t.Fatalf("Evaluate(plain string) error = %v", err)
	}
	if result != "hello" {
		t.Errorf("Evaluate(plain string) = %v, want hello", result)
	}
}

func TestEvaluateExpressionPrefix(t *testing.T) {
	fx := &fakeExprExecutor{responses: map[string]any{"1 + 1": int64(2)}}
	eval := NewEvaluator(fx, nil, nil)

	result, err := eval.Evaluate(context.Background(), StringValue("C#|1 + 1"), int64Type)
	if err != nil {
		t.Fatalf("Evaluate(expr) error = %v", err)
	}
	if result != int64(2) {
		t.Errorf("Evaluate(expr) = %v, want 2", result)
	}
}

func TestEvaluateExpressionPrefixMissingExecutor(t *testing.T) {
	eval := NewEvaluator(nil, nil, nil)
	_, err := eval.Evaluate(context.Background(), StringValue("C#|1 + 1"), nil)
	if err == nil {
		t.Fatal("Evaluate(expr) with nil executor = nil error, want error")
	}
	if _, ok := err.(*EvaluateDynamicPropertyError); !ok {
		t.Errorf("Evaluate(expr) with nil executor error = %T, want *EvaluateDynamicPropertyError", err)
	}
}

func TestParseExpressionPrefixTypedForm(t *testing.T) {
	body, effType, ok := parseExpressionPrefix("C#<int64>|x + 1", nil)
	if !ok {
		t.Fatal("parseExpressionPrefix(typed) ok = false, want true")
	}
	if body != "x + 1" {
		t.Errorf("body = %q, want %q", body, "x + 1")
	}
	if effType != reflect.TypeOf(int64(0)) {
		t.Errorf("effectiveType = %v, want int64", effType)
	}
}

func TestParseExpressionPrefixKnownTypeWins(t *testing.T) {
	boolT := reflect.TypeOf(false)
	_, effType, ok := parseExpressionPrefix("C#<int64>|x", boolT)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if effType != boolT {
		t.Errorf("effectiveType = %v, want knownType (bool) to win over embedded <int64>", effType)
	}
}

func TestParseExpressionPrefixNotAnExpression(t *testing.T) {
	_, _, ok := parseExpressionPrefix("plain text", nil)
	if ok {
		t.Error("parseExpressionPrefix(plain text) ok = true, want false")
	}
}

func TestEvaluateExternalExecutorPrefix(t *testing.T) {
	called := false
	externals := map[string]ExternalExecutor{
		"Env|": func(_ context.Context, payload string) (any, error) {
			called = true
			if payload != "HOME" {
				t.Errorf("payload = %q, want HOME", payload)
			}
			return "/root", nil
		},
	}
	eval := NewEvaluator(nil, externals, nil)
	result, err := eval.Evaluate(context.Background(), StringValue("Env|HOME"), nil)
	if err != nil {
		t.Fatalf("Evaluate(external) error = %v", err)
	}
	if !called {
		t.Error("external executor was not invoked")
	}
	if result != "/root" {
		t.Errorf("Evaluate(external) = %v, want /root", result)
	}
}

func TestEvaluateObjectNoKnownType(t *testing.T) {
	eval := NewEvaluator(nil, nil, nil)
	value := ObjectValue(map[string]SchemaValue{
		"name": StringValue("forge"),
		"ok":   BoolValue(true),
	})
	result, err := eval.Evaluate(context.Background(), value, nil)
	if err != nil {
		t.Fatalf("Evaluate(object) error = %v", err)
	}
	m, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("Evaluate(object) = %T, want map[string]any", result)
	}
	if m["name"] != "forge" || m["ok"] != true {
		t.Errorf("result = %v", m)
	}
}

type evalTestStruct struct {
	Name  string
	Count int64
}

func TestEvaluateObjectWithKnownStructType(t *testing.T) {
	eval := NewEvaluator(nil, nil, nil)
	value := ObjectValue(map[string]SchemaValue{
		"name":  StringValue("forge"),
		"count": NumberValue(3),
	})
	result, err := eval.Evaluate(context.Background(), value, reflect.TypeOf(evalTestStruct{}))
	if err != nil {
		t.Fatalf("Evaluate(struct object) error = %v", err)
	}
	out, ok := result.(evalTestStruct)
	if !ok {
		t.Fatalf("Evaluate(struct object) = %T, want evalTestStruct", result)
	}
	if out.Name != "forge" || out.Count != 3 {
		t.Errorf("result = %+v, want {forge 3}", out)
	}
}

func TestEvaluateObjectCaseInsensitiveFieldMatch(t *testing.T) {
	eval := NewEvaluator(nil, nil, nil)
	value := ObjectValue(map[string]SchemaValue{
		"NAME": StringValue("forge"),
	})
	result, err := eval.Evaluate(context.Background(), value, reflect.TypeOf(evalTestStruct{}))
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	out := result.(evalTestStruct)
	if out.Name != "forge" {
		t.Errorf("Name = %q, want forge (case-insensitive match)", out.Name)
	}
}

func TestEvaluateObjectUnknownFieldSkipped(t *testing.T) {
	eval := NewEvaluator(nil, nil, nil)
	value := ObjectValue(map[string]SchemaValue{
		"name":    StringValue("forge"),
		"unknown": StringValue("ignored"),
	})
	result, err := eval.Evaluate(context.Background(), value, reflect.TypeOf(evalTestStruct{}))
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	out := result.(evalTestStruct)
	if out.Name != "forge" {
		t.Errorf("Name = %q, want forge", out.Name)
	}
}

func TestEvaluateArrayNoKnownType(t *testing.T) {
	eval := NewEvaluator(nil, nil, nil)
	value := ArrayValue(StringValue("a"), StringValue("b"))
	result, err := eval.Evaluate(context.Background(), value, nil)
	if err != nil {
		t.Fatalf("Evaluate(array) error = %v", err)
	}
	arr, ok := result.([]any)
	if !ok || len(arr) != 2 || arr[0] != "a" || arr[1] != "b" {
		t.Errorf("result = %v, want [a b]", result)
	}
}

func TestEvaluateArrayWithKnownSliceType(t *testing.T) {
	eval := NewEvaluator(nil, nil, nil)
	value := ArrayValue(StringValue("a"), StringValue("b"))
	result, err := eval.Evaluate(context.Background(), value, reflect.TypeOf([]string{}))
	if err != nil {
		t.Fatalf("Evaluate(array) error = %v", err)
	}
	arr, ok := result.([]string)
	if !ok || len(arr) != 2 || arr[0] != "a" || arr[1] != "b" {
		t.Errorf("result = %v, want [a b] ([]string)", result)
	}
}

func TestEvaluateScalarCoercion(t *testing.T) {
	eval := NewEvaluator(nil, nil, nil)
	result, err := eval.Evaluate(context.Background(), NumberValue(3), reflect.TypeOf(int64(0)))
	if err != nil {
		t.Fatalf("Evaluate(scalar) error = %v", err)
	}
	if result != int64(3) {
		t.Errorf("result = %v (%T), want int64(3)", result, result)
	}
}

func TestEvaluateWrapsNonCancellationErrorsAsEvaluateDynamicPropertyError(t *testing.T) {
	fx := &fakeExprExecutor{errs: map[string]error{"boom": errFakeBoom}}
	eval := NewEvaluator(fx, nil, nil)

	_, err := eval.Evaluate(context.Background(), StringValue("C#|boom"), nil)
	if err == nil {
		t.Fatal("Evaluate error = nil, want *EvaluateDynamicPropertyError")
	}
	wrapped, ok := err.(*EvaluateDynamicPropertyError)
	if !ok {
		t.Fatalf("error = %T, want *EvaluateDynamicPropertyError", err)
	}
	if wrapped.Cause != errFakeBoom {
		t.Errorf("Cause = %v, want errFakeBoom", wrapped.Cause)
	}
}

func TestEvaluatePropagatesContextCancellationUnwrapped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eval := NewEvaluator(nil, nil, nil)
	_, err := eval.Evaluate(ctx, StringValue("anything"), nil)
	if err != context.Canceled {
		t.Errorf("Evaluate error = %v, want context.Canceled unwrapped", err)
	}
}
