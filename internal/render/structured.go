package render

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mhoffs/sprintdeps/internal/engine"
)

// Structured writes the machine-readable report, JSON by default or YAML on
// request. Output is always parseable: a marshal failure becomes an error
// document rather than partial garbage, so automation can rely on the shape.
func (r *Renderer) Structured(report *engine.Report, yamlOut bool) error {
	if yamlOut {
		data, err := yaml.Marshal(report)
		if err != nil {
			fmt.Fprintf(r.w, "error: %q\n", err.Error())
			return err
		}
		_, err = r.w.Write(data)
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(r.w, "{\"error\": %q}\n", err.Error())
		return err
	}
	data = append(data, '\n')
	_, err = r.w.Write(data)
	return err
}
