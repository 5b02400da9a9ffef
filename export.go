package criteria

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Result is an exportable snapshot of a suite after a run.
type Result struct {
	Name       string        `yaml:"name"`
	Level      int           `yaml:"level"`
	Passed     int           `yaml:"passed"`
	Failed     int           `yaml:"failed"`
	Total      int           `yaml:"total"`
	Tests      []TestSummary `yaml:"tests,omitempty"`
	HookErrors []string      `yaml:"hook_errors,omitempty"`
	Children   []Result      `yaml:"children,omitempty"`
}

// TestSummary is the exported outcome of one test.
type TestSummary struct {
	Name   string `yaml:"name"`
	Passed bool   `yaml:"passed"`
	Error  string `yaml:"error,omitempty"`
}

// Result snapshots the suite and its descendants.
func (s *Suite) Result() Result {
	res := Result{
		Name:   s.name,
		Level:  s.level,
		Passed: s.successes,
		Failed: s.failures,
		Total:  s.total,
	}
	for _, tr := range s.results {
		ts := TestSummary{Name: tr.Name, Passed: tr.Passed()}
		if tr.Err != nil {
			ts.Error = tr.Err.Error()
		}
		res.Tests = append(res.Tests, ts)
	}
	for _, hf := range s.hookErrors {
		res.HookErrors = append(res.HookErrors, fmt.Sprintf("%s: %v", hf.Hook, hf.Err))
	}
	for _, child := range s.children {
		res.Children = append(res.Children, child.Result())
	}
	return res
}

// Results snapshots every top-level suite in registration order.
func (r *Registry) Results() []Result {
	results := make([]Result, 0, len(r.suites))
	for _, s := range r.suites {
		results = append(results, s.Result())
	}
	return results
}

// WriteYAML encodes results as a YAML document.
func WriteYAML(w io.Writer, results []Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]Result{"suites": results}); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return enc.Close()
}
