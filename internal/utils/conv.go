package utils

import (
	"strconv"
)

// ParseID 解析路径中的数字 ID，非法或为 0 时返回 false
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// FormatCount 把计数缩写为展示用的字符串，1000 以上按千截断: 1999 -> "1k"
func FormatCount(n int) string {
	if n >= 1000 {
		return strconv.Itoa(n/1000) + "k"
	}
	return strconv.Itoa(n)
}
