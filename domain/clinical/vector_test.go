package clinical

import (
	"errors"
	"strings"
	"testing"

	"koafrail/domain/core"
)

func TestSchemaShape(t *testing.T) {
	if Count() != 11 {
		t.Fatalf("Expected 11 features, got %d", Count())
	}

	wantOrder := []string{
		KeyAge, KeyGender, KeyBMI, KeySmoke, KeyFTSST, KeyADL,
		KeyPA, KeyComplications, KeyFall, KeyCRP, KeyHGB,
	}
	got := Keys()
	for i, key := range wantOrder {
		if got[i] != key {
			t.Errorf("Form order position %d: expected %s, got %s", i, key, got[i])
		}
	}

	for _, f := range Features() {
		switch f.Kind {
		case KindNumeric:
			if f.Max <= f.Min {
				t.Errorf("%s: max %g not above min %g", f.Key, f.Max, f.Min)
			}
			if f.Step <= 0 {
				t.Errorf("%s: non-positive step", f.Key)
			}
		case KindCategorical:
			if len(f.Levels) < 2 {
				t.Errorf("%s: categorical with %d levels", f.Key, len(f.Levels))
			}
		default:
			t.Errorf("%s: unknown kind %q", f.Key, f.Kind)
		}
	}
}

func TestDefaultsAreValid(t *testing.T) {
	v := Defaults()
	if len(v) != Count() {
		t.Fatalf("Defaults missing keys: got %d, want %d", len(v), Count())
	}
	if errs := v.Validate(); len(errs) != 0 {
		t.Fatalf("Default vector should validate cleanly, got: %v", errs)
	}
	if v[KeyHGB] != 120.0 {
		t.Errorf("HGB default: expected 120, got %g", v[KeyHGB])
	}
	if v[KeyBMI] != 18.5 {
		t.Errorf("BMI default: expected 18.5, got %g", v[KeyBMI])
	}
}

func TestValidateCatchesRangeViolations(t *testing.T) {
	v := Defaults()
	v[KeyAge] = 39 // below the 40-110 window
	v[KeyCRP] = 30.5

	errs := v.Validate()
	if len(errs) != 2 {
		t.Fatalf("Expected 2 field errors, got %d: %v", len(errs), errs)
	}
	keys := map[string]bool{}
	for _, fe := range errs {
		keys[fe.Key] = true
		if fe.Message == "" || fe.Label == "" {
			t.Errorf("Field error for %s missing label or message", fe.Key)
		}
	}
	if !keys[KeyAge] || !keys[KeyCRP] {
		t.Errorf("Expected errors on age and bl_crp, got %v", errs)
	}
}

func TestValidateCatchesBadLevels(t *testing.T) {
	v := Defaults()
	v[KeyPA] = 3 // PA levels stop at 2
	if errs := v.Validate(); len(errs) != 1 || errs[0].Key != KeyPA {
		t.Fatalf("Expected a single PA level error, got %v", errs)
	}

	v = Defaults()
	v[KeyGender] = 0.5 // fractional code is not a level
	if errs := v.Validate(); len(errs) != 1 || errs[0].Key != KeyGender {
		t.Fatalf("Expected a single gender level error, got %v", errs)
	}
}

func TestValidateCatchesMissingAndUnknown(t *testing.T) {
	v := Defaults()
	delete(v, KeyFTSST)
	v["grip_strength"] = 22

	errs := v.Validate()
	if len(errs) != 2 {
		t.Fatalf("Expected 2 field errors, got %d: %v", len(errs), errs)
	}

	var sawMissing, sawUnknown bool
	for _, fe := range errs {
		if fe.Key == KeyFTSST && strings.Contains(fe.Message, "required") {
			sawMissing = true
		}
		if fe.Key == "grip_strength" {
			sawUnknown = true
		}
	}
	if !sawMissing || !sawUnknown {
		t.Errorf("Expected missing FTSST and unknown grip_strength, got %v", errs)
	}
}

func TestParseValue(t *testing.T) {
	val, err := ParseValue(KeyBMI, " 27.5 ")
	if err != nil {
		t.Fatalf("Unexpected parse error: %v", err)
	}
	if val != 27.5 {
		t.Errorf("Expected 27.5, got %g", val)
	}

	if _, err := ParseValue(KeyBMI, ""); !errors.Is(err, core.ErrMissingFeature) {
		t.Errorf("Empty value: expected ErrMissingFeature, got %v", err)
	}
	if _, err := ParseValue(KeyBMI, "heavy"); !errors.Is(err, core.ErrNotANumber) {
		t.Errorf("Non-numeric: expected ErrNotANumber, got %v", err)
	}
	if _, err := ParseValue("grip_strength", "1"); !errors.Is(err, core.ErrUnknownFeature) {
		t.Errorf("Unknown key: expected ErrUnknownFeature, got %v", err)
	}
}

func TestFormatValue(t *testing.T) {
	age, _ := ByKey(KeyAge)
	if s := age.FormatValue(63); s != "63" {
		t.Errorf("Whole number: expected 63, got %s", s)
	}
	bmi, _ := ByKey(KeyBMI)
	if s := bmi.FormatValue(27.5); s != "27.5" {
		t.Errorf("Fractional: expected 27.5, got %s", s)
	}
}

func TestLevelLabel(t *testing.T) {
	pa, _ := ByKey(KeyPA)
	label, ok := pa.LevelLabel(2)
	if !ok || label != "Low" {
		t.Errorf("PA level 2: expected Low, got %q (ok=%v)", label, ok)
	}
	if _, ok := pa.LevelLabel(7); ok {
		t.Error("PA level 7 should not resolve")
	}
}
