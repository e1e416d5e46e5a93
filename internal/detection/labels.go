package detection

import (
	"fmt"
	"os"
	"strings"
)

// LoadClassNames reads one class name per line. Blank lines are skipped.
func LoadClassNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("class names file %s is empty", path)
	}
	return names, nil
}

// NumberedClassNames returns class_0 .. class_<n-1>.
func NumberedClassNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = Label(nil, i)
	}
	return names
}
