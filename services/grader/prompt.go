package gradersvc

import (
	"encoding/json"
	"regexp"
	"strings"
	"text/template"

	"github.com/trezcool/stadi/core"
)

// maxContentChars caps the submission excerpt sent to the model.
const maxContentChars = 8000

var promptTmpl = template.Must(template.New("grade").Parse(`You are grading a student's submission for a school task.

Task: {{.TaskTitle}}
{{.TaskDescription}}

Assess the submission on these 21st-century skills: {{.SkillList}}.

Submission:
"""
{{.Content}}
"""

Reply with a single JSON object, no other text, shaped exactly like:
{"score": <0-100 overall>, "feedback": "<2-3 sentences for the student>", "skills": [{"name": "<skill>", "score": <0-100>, "comment": "<1 sentence>"}]}`))

// jsonObjRegex grabs the outermost {...} block of the model's reply;
// this is the full extent of output validation.
var jsonObjRegex = regexp.MustCompile(`(?s)\{.*\}`)

func buildPrompt(in core.GradeInput) (string, error) {
	content := in.Content
	if len(content) > maxContentChars {
		content = content[:maxContentChars] + "..."
	}

	var b strings.Builder
	err := promptTmpl.Execute(&b, struct {
		TaskTitle       string
		TaskDescription string
		SkillList       string
		Content         string
	}{in.TaskTitle, in.TaskDescription, strings.Join(in.SkillNames, ", "), content})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// extractGrade pulls the grade object out of the model's free-text reply.
// Anything that does not regex-match and unmarshal yields core.ErrUngradable.
func extractGrade(reply string) (core.GradeResult, error) {
	match := jsonObjRegex.FindString(reply)
	if match == "" {
		return core.GradeResult{}, core.ErrUngradable
	}

	var res core.GradeResult
	if err := json.Unmarshal([]byte(match), &res); err != nil {
		return core.GradeResult{}, core.ErrUngradable
	}
	return res, nil
}
