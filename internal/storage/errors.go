package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

// IsNoSuchKey 判断对象是否不存在；删除 logo 时据此实现幂等。
func IsNoSuchKey(err error) bool {
	return matchS3Error(err,
		[]string{"nosuchkey", "notfound"},
		[]string{"nosuchkey", "specified key does not exist"},
	)
}

// IsNoSuchBucket 判断 Bucket 是否不存在；启动时据此决定是否自动建桶。
func IsNoSuchBucket(err error) bool {
	return matchS3Error(err,
		[]string{"nosuchbucket"},
		[]string{"nosuchbucket", "specified bucket does not exist"},
	)
}

// matchS3Error 先比对 minio 错误码，再回退到错误文本（部分网关会把错误包装成字符串）。
func matchS3Error(err error, codes, phrases []string) bool {
	if err == nil {
		return false
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		code := strings.ToLower(strings.TrimSpace(resp.Code))
		for _, c := range codes {
			if code == c {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
