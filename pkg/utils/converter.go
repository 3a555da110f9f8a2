package utils

import "unsafe"

// StringToBytes converts string to a byte slice without any memory allocation.
// The result aliases the string's storage and must only be read.
func StringToBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// BytesToString converts byte slice to a string without any memory allocation.
// The slice must not be modified afterwards.
func BytesToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
