package output

import (
	"encoding/json"
)

func renderJSON(value any, indent bool) (string, error) {
	var (
		data []byte
		err  error
	)

	if indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
