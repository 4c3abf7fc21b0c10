//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package bytesource

import "os"

func mmapFile(_ *os.File, _ int) ([]byte, error) {
	return nil, errMmapUnsupported
}

func munmap(_ []byte) error {
	return nil
}
