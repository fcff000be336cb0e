// Package ptrx provides pointer helpers for SDKs that take optional
// scalars as pointers.
package ptrx

// Int32 returns a pointer to v.
func Int32(v int32) *int32 {
	return &v
}

// Float32 returns a pointer to v.
func Float32(v float32) *float32 {
	return &v
}

// String returns a pointer to v.
func String(v string) *string {
	return &v
}

// Int32Value dereferences v, returning 0 when nil.
func Int32Value(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}

// Float32Value dereferences v, returning 0 when nil.
func Float32Value(v *float32) float32 {
	if v == nil {
		return 0
	}
	return *v
}

// StringValue dereferences v, returning "" when nil.
func StringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
