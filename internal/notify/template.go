package notify

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/fjell-io/gauntlet/internal/pipeline"
)

// DefaultTemplate is used when neither the target nor the service declares one.
const DefaultTemplate = `{{result.status_emoji}} {{globals.hostname}}: pipeline {{result.status}}{{if result.failed_stage}} at {{result.failed_stage}}{{end}} ({{result.passed}}/{{result.attempted}} stages, {{result.duration}})`

// TemplateData holds all data available to notification templates.
type TemplateData struct {
	Globals map[string]any
	Result  map[string]string
}

// BuildTemplateData flattens a pipeline result into template fields.
func BuildTemplateData(globals map[string]any, res *pipeline.Result) TemplateData {
	status := "passed"
	if !res.Success() {
		status = "failed"
	}

	passed := 0
	for _, sr := range res.Stages {
		if !sr.Failed() {
			passed++
		}
	}

	result := map[string]string{
		"status":       status,
		"status_emoji": statusEmoji(status),
		"failed_stage": res.FailedStage,
		"attempted":    strconv.Itoa(len(res.Stages)),
		"passed":       strconv.Itoa(passed),
		"duration":     res.Duration.Round(time.Millisecond).String(),
		"exit_code":    strconv.Itoa(res.ExitCode()),
	}
	if res.FailedStage != "" {
		for _, sr := range res.Stages {
			if sr.Stage == res.FailedStage {
				result["failure_kind"] = sr.Kind
				break
			}
		}
	}

	return TemplateData{
		Globals: globals,
		Result:  result,
	}
}

func statusEmoji(status string) string {
	switch status {
	case "passed":
		return "\U0001f7e2" // 🟢
	case "failed":
		return "\U0001f534" // 🔴
	default:
		return "❓" // ❓
	}
}

// Render executes a Go text/template string with Sprig functions and the
// custom accessor functions (result, globals).
func Render(tmplStr string, data TemplateData) (string, error) {
	funcMap := sprig.TxtFuncMap()

	// Register accessor functions so {{result.status}} works:
	// "result" returns the result map, then ".status" accesses a key.
	funcMap["result"] = func() map[string]string { return data.Result }
	funcMap["globals"] = func() map[string]any { return data.Globals }

	t, err := template.New("notify").Funcs(funcMap).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
