package conformance

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Tests       []TestCase `yaml:"tests"`
}

// TestCase represents a single program and what it must do
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	Source      string      `yaml:"source"`
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines the expected outcome. Error names a compile ErrorCode
// or a runtime fault; Output lists printed values, including those printed
// before a runtime fault.
type Expectation struct {
	Output  []int32  `yaml:"output,omitempty"`
	Error   string   `yaml:"error,omitempty"`
	Line    int      `yaml:"line,omitempty"`   // 1-based, compile errors only
	Column  int      `yaml:"column,omitempty"` // 1-based, compile errors only
	Listing []string `yaml:"listing,omitempty"`
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	if tc.Skip == nil {
		return false, ""
	}

	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}
