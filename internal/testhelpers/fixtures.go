package testhelpers

import (
	"os"
	"path/filepath"
	"runtime"
)

func LoadFixture(name string) ([]byte, error) {
	_, file, _, _ := runtime.Caller(0)
	return os.ReadFile(filepath.Join(filepath.Dir(file), "fixtures", name))
}

// MustLoadFixture is LoadFixture for fixtures that are known to exist.
func MustLoadFixture(name string) string {
	b, err := LoadFixture(name)
	if err != nil {
		panic(err)
	}
	return string(b)
}
