package api

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const logoKeyPrefix = "company-logos"

func logoObjectPrefix(userID uint) string {
	return fmt.Sprintf("%s/%d/", logoKeyPrefix, userID)
}

// isValidLogoObjectKey 只接受当前雇主目录下的图片对象。
func isValidLogoObjectKey(userID uint, key string) bool {
	if key == "" || !utf8.ValidString(key) || len(key) > 200 {
		return false
	}
	if !strings.HasPrefix(key, logoObjectPrefix(userID)) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	for _, ext := range logoExtensions {
		if strings.HasSuffix(strings.ToLower(key), ext) {
			return true
		}
	}
	return false
}
