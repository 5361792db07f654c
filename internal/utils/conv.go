package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// ParseID 解析 URL 中的正整数 ID
func ParseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// ParsePage 解析页码，非法值返回 1
func ParsePage(s string) int {
	if p := StringToInt(s); p > 0 {
		return p
	}
	return 1
}
