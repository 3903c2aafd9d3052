package ptrx

// Of returns a pointer to a copy of v.
func Of[T any](v T) *T {
	return &v
}

// Int returns a pointer value for the int value passed in.
func Int(v int) *int {
	return &v
}
