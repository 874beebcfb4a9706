package storage

import (
	"errors"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected 表示上传内容被 ClamAV 判定为恶意文件。
var ErrInfected = errors.New("malicious file detected")

// Scanner 在上传前扫描文件内容。
type Scanner interface {
	Scan(r io.Reader) error
}

// ClamdScanner 通过 clamd 的 INSTREAM 接口扫描。
type ClamdScanner struct {
	client *clamd.Clamd
}

// NewClamdScanner 构造扫描器，addr 形如 tcp://clamav:3310。
func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{client: clamd.NewClamd(addr)}
}

// Scan 返回 nil 表示干净，ErrInfected 表示命中特征。
func (s *ClamdScanner) Scan(r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan: %w", err)
	}
	for result := range results {
		switch result.Status {
		case clamd.RES_OK:
		case clamd.RES_FOUND:
			return fmt.Errorf("%w: %s", ErrInfected, result.Description)
		default:
			return fmt.Errorf("clamd scan: %s %s", result.Status, result.Description)
		}
	}
	return nil
}
