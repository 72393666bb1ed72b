package conformance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadedTest represents a test with its source file path
type LoadedTest struct {
	File  string
	Suite string
	Test  TestCase
}

// Name returns a unique, readable name for the test.
func (lt LoadedTest) Name() string {
	return fmt.Sprintf("%s/%s/%s", filepath.Base(lt.File), lt.Suite, lt.Test.Name)
}

// LoadFile loads every test case of one YAML suite.
func LoadFile(path string) ([]LoadedTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(suite.Tests) == 0 {
		return nil, fmt.Errorf("%s: suite has no tests", path)
	}

	loaded := make([]LoadedTest, 0, len(suite.Tests))
	for _, tc := range suite.Tests {
		loaded = append(loaded, LoadedTest{File: path, Suite: suite.Name, Test: tc})
	}
	return loaded, nil
}

// LoadDir loads all *.yaml suites in dir, in file name order.
func LoadDir(dir string) ([]LoadedTest, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .yaml suites in %s", dir)
	}
	sort.Strings(paths)

	var loaded []LoadedTest
	for _, path := range paths {
		tests, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, tests...)
	}
	return loaded, nil
}
