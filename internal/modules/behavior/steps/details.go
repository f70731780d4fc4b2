package steps

import (
	"encoding/json"
	"strings"
)

// activityDetails is the subset of the opaque details blob the enrichment
// rules care about. Capture clients disagree on key names, so each field
// probes a list of aliases.
type activityDetails struct {
	AppName     string
	URL         string
	WindowTitle string
	FilePath    string
}

var (
	appNameKeys     = []string{"app_name", "app", "application", "process_name"}
	urlKeys         = []string{"url", "website_url", "request_url"}
	windowTitleKeys = []string{"window_title", "title"}
	filePathKeys    = []string{"file_path", "path", "file"}
)

// parseDetails tolerates malformed or non-object blobs: anything that does
// not decode to a JSON object yields an empty attribute set. It never
// returns an error.
func parseDetails(raw []byte) activityDetails {
	var out activityDetails
	if len(raw) == 0 {
		return out
	}
	var blob map[string]any
	if err := json.Unmarshal(raw, &blob); err != nil {
		return out
	}
	out.AppName = firstString(blob, appNameKeys)
	out.URL = firstString(blob, urlKeys)
	out.WindowTitle = firstString(blob, windowTitleKeys)
	out.FilePath = firstString(blob, filePathKeys)
	return out
}

func firstString(blob map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := blob[k]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
