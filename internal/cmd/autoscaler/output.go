/*
Copyright © contributors to CloudNativePG, established as
CloudNativePG a Series of LF Projects, LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

SPDX-License-Identifier: Apache-2.0
*/

package autoscaler

import (
	"encoding/json"
	"fmt"
	"io"

	"sigs.k8s.io/yaml"
)

// OutputFormat is the format of the command output
type OutputFormat string

const (
	// OutputFormatText is a human readable report
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is indented JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML
	OutputFormatYAML OutputFormat = "yaml"
)

// parseOutputFormat validates the value of an --output flag
func parseOutputFormat(value string, allowed ...OutputFormat) (OutputFormat, error) {
	for _, format := range allowed {
		if OutputFormat(value) == format {
			return format, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q, expected one of %v", value, allowed)
}

// printStructured writes the object as JSON or YAML
func printStructured(w io.Writer, obj any, format OutputFormat) error {
	switch format {
	case OutputFormatYAML:
		data, err := yaml.Marshal(obj)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(obj)
	}
}
