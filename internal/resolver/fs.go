package resolver

import "os"

// osChecker probes the host filesystem
type osChecker struct{}

func (osChecker) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (osChecker) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
