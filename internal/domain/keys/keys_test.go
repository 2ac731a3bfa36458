package keys

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseCourseKey(t *testing.T) {
	ck, err := ParseCourseKey("course-v1:edX+DemoX+Demo_Course")
	if err != nil {
		t.Fatalf("ParseCourseKey: %v", err)
	}
	if ck.Org != "edX" || ck.Course != "DemoX" || ck.Run != "Demo_Course" {
		t.Fatalf("unexpected parts: %+v", ck)
	}
	if got := ck.String(); got != "course-v1:edX+DemoX+Demo_Course" {
		t.Fatalf("String: %q", got)
	}
}

func TestParseCourseKey_Rejects(t *testing.T) {
	cases := []string{
		"",
		"edX+DemoX+Demo_Course",
		"course-v1:edX+DemoX",
		"course-v1:edX+DemoX+Demo+Extra",
		"course-v1:edX++Demo",
		"course-v1:edX+Demo X+Run",
		"block-v1:edX+DemoX+Demo_Course+type@html+block@x",
	}
	for _, raw := range cases {
		if _, err := ParseCourseKey(raw); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("%q: expected ErrInvalidKey, got %v", raw, err)
		}
	}
}

func TestParseUsageKey(t *testing.T) {
	raw := "block-v1:edX+DemoX+Demo_Course+type@problem+block@p1"
	uk, err := ParseUsageKey(raw)
	if err != nil {
		t.Fatalf("ParseUsageKey: %v", err)
	}
	if uk.BlockType() != "problem" || uk.BlockID != "p1" {
		t.Fatalf("unexpected parts: %+v", uk)
	}
	if uk.CourseKey() != MustParseCourseKey("course-v1:edX+DemoX+Demo_Course") {
		t.Fatalf("course key: %s", uk.CourseKey())
	}
	if uk.String() != raw {
		t.Fatalf("String: %q", uk.String())
	}
}

func TestParseUsageKey_Rejects(t *testing.T) {
	cases := []string{
		"",
		"course-v1:edX+DemoX+Demo_Course",
		"block-v1:edX+DemoX+Demo_Course+problem+block@p1",
		"block-v1:edX+DemoX+Demo_Course+type@problem+p1",
		"block-v1:edX+DemoX+Demo_Course+type@+block@p1",
		"block-v1:edX+DemoX+type@problem+block@p1",
	}
	for _, raw := range cases {
		if _, err := ParseUsageKey(raw); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("%q: expected ErrInvalidKey, got %v", raw, err)
		}
	}
}

func TestKeysJSON(t *testing.T) {
	type payload struct {
		Course CourseKey `json:"course"`
		Block  UsageKey  `json:"block"`
	}
	in := payload{
		Course: MustParseCourseKey("course-v1:edX+DemoX+Demo_Course"),
		Block:  MustParseUsageKey("block-v1:edX+DemoX+Demo_Course+type@video+block@v1"),
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"course":"course-v1:edX+DemoX+Demo_Course","block":"block-v1:edX+DemoX+Demo_Course+type@video+block@v1"}`
	if string(b) != want {
		t.Fatalf("Marshal: got %s", b)
	}

	var out payload
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("Unmarshal: got %+v", out)
	}
	if err := json.Unmarshal([]byte(`{"course":"nope"}`), &out); err == nil {
		t.Fatalf("expected error for malformed course key")
	}
}

func TestScan(t *testing.T) {
	var uk UsageKey
	if err := uk.Scan([]byte("block-v1:edX+DemoX+Demo_Course+type@html+block@h")); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	if uk.BlockType() != "html" {
		t.Fatalf("Scan bytes: %+v", uk)
	}
	if err := uk.Scan(nil); err != nil || !uk.IsZero() {
		t.Fatalf("Scan nil: %+v err=%v", uk, err)
	}
	var ck CourseKey
	if err := ck.Scan(42); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("Scan int: expected ErrInvalidKey, got %v", err)
	}
	if v, _ := (CourseKey{}).Value(); v != "" {
		t.Fatalf("zero Value: %v", v)
	}
}
