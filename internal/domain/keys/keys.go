// Package keys implements the course and block identifiers completion records are
// keyed by. Both render to and parse from their canonical string form, which is also
// how they are persisted.
package keys

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidKey = errors.New("invalid key")

const (
	coursePrefix = "course-v1"
	blockPrefix  = "block-v1"
	typeTag      = "type@"
	blockTag     = "block@"
)

// CourseKey identifies a course run: course-v1:{org}+{course}+{run}.
type CourseKey struct {
	Org    string
	Course string
	Run    string
}

// ParseCourseKey parses the canonical course-v1 form.
func ParseCourseKey(raw string) (CourseKey, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(raw), coursePrefix+":")
	if !ok {
		return CourseKey{}, fmt.Errorf("%w: course key %q", ErrInvalidKey, raw)
	}
	parts := strings.Split(body, "+")
	if len(parts) != 3 {
		return CourseKey{}, fmt.Errorf("%w: course key %q", ErrInvalidKey, raw)
	}
	ck := CourseKey{Org: parts[0], Course: parts[1], Run: parts[2]}
	if ck.IsZero() || !ck.valid() {
		return CourseKey{}, fmt.Errorf("%w: course key %q", ErrInvalidKey, raw)
	}
	return ck, nil
}

func (k CourseKey) valid() bool {
	return validPart(k.Org) && validPart(k.Course) && validPart(k.Run)
}

func (k CourseKey) IsZero() bool { return k == CourseKey{} }

func (k CourseKey) String() string {
	if k.IsZero() {
		return ""
	}
	return coursePrefix + ":" + k.Org + "+" + k.Course + "+" + k.Run
}

func (k CourseKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *CourseKey) UnmarshalText(b []byte) error {
	parsed, err := ParseCourseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k CourseKey) Value() (driver.Value, error) { return k.String(), nil }

func (k *CourseKey) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	if s == "" {
		*k = CourseKey{}
		return nil
	}
	parsed, err := ParseCourseKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// UsageKey identifies a block inside a course run:
// block-v1:{org}+{course}+{run}+type@{type}+block@{id}.
type UsageKey struct {
	Course  CourseKey
	Type    string
	BlockID string
}

// ParseUsageKey parses the canonical block-v1 form.
func ParseUsageKey(raw string) (UsageKey, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(raw), blockPrefix+":")
	if !ok {
		return UsageKey{}, fmt.Errorf("%w: usage key %q", ErrInvalidKey, raw)
	}
	parts := strings.Split(body, "+")
	if len(parts) != 5 {
		return UsageKey{}, fmt.Errorf("%w: usage key %q", ErrInvalidKey, raw)
	}
	blockType, okType := strings.CutPrefix(parts[3], typeTag)
	blockID, okBlock := strings.CutPrefix(parts[4], blockTag)
	uk := UsageKey{
		Course:  CourseKey{Org: parts[0], Course: parts[1], Run: parts[2]},
		Type:    blockType,
		BlockID: blockID,
	}
	if !okType || !okBlock || !uk.Course.valid() || !validPart(uk.Type) || !validPart(uk.BlockID) {
		return UsageKey{}, fmt.Errorf("%w: usage key %q", ErrInvalidKey, raw)
	}
	return uk, nil
}

// MustParseUsageKey panics on malformed input. Intended for fixtures.
func MustParseUsageKey(raw string) UsageKey {
	uk, err := ParseUsageKey(raw)
	if err != nil {
		panic(err)
	}
	return uk
}

// MustParseCourseKey panics on malformed input. Intended for fixtures.
func MustParseCourseKey(raw string) CourseKey {
	ck, err := ParseCourseKey(raw)
	if err != nil {
		panic(err)
	}
	return ck
}

func (k UsageKey) IsZero() bool { return k == UsageKey{} }

// CourseKey is the course run the block belongs to.
func (k UsageKey) CourseKey() CourseKey { return k.Course }

// BlockType is the XBlock type tag, e.g. "video" or "problem".
func (k UsageKey) BlockType() string { return k.Type }

func (k UsageKey) String() string {
	if k.IsZero() {
		return ""
	}
	return blockPrefix + ":" + k.Course.Org + "+" + k.Course.Course + "+" + k.Course.Run +
		"+" + typeTag + k.Type + "+" + blockTag + k.BlockID
}

func (k UsageKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *UsageKey) UnmarshalText(b []byte) error {
	parsed, err := ParseUsageKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k UsageKey) Value() (driver.Value, error) { return k.String(), nil }

func (k *UsageKey) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	if s == "" {
		*k = UsageKey{}
		return nil
	}
	parsed, err := ParseUsageKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("%w: cannot scan %T", ErrInvalidKey, src)
	}
}

// validPart rejects empty segments and characters that would make the
// string form ambiguous.
func validPart(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, "+: \t\r\n")
}
