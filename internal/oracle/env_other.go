//go:build !windows

package oracle

import "os"

func setNativeEnv(key, value string) {
	_ = os.Setenv(key, value)
}

func prependPathEnv(key, dir string) {
	cur := os.Getenv(key)
	if cur == "" {
		setNativeEnv(key, dir)
		return
	}
	setNativeEnv(key, dir+string(os.PathListSeparator)+cur)
}
