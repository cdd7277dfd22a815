package issue

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Step is one location of the flow that leads to an issue.
type Step struct {
	Line    int
	Message string
}

type Issue struct {
	ID          string
	Title       string
	Description string

	File   string
	Method string
	Line   int
	Flow   []Step
}

// Key identifies an issue independently of the path that found it.
func (is *Issue) Key() string {
	return fmt.Sprintf("%s:%s:%d", is.ID, is.Method, is.Line)
}

func (is *Issue) String() string {
	ruleDescription := fmt.Sprintf("ID: %s\nTitle: %s\nDescription: %s\n\n",
		is.ID, is.Title, is.Description)
	ruleDescription = color.RedString(ruleDescription)

	codeInfo := fmt.Sprintf("In file: %s:%d\nMethod: %s\n", is.File, is.Line, is.Method)
	codeInfo = color.YellowString(codeInfo)

	var flow strings.Builder
	for _, step := range is.Flow {
		fmt.Fprintf(&flow, "  line %d: %s\n", step.Line, step.Message)
	}
	return fmt.Sprintf("%s%s%s", ruleDescription, codeInfo, color.CyanString(flow.String()))
}

// Sort orders issues by file, line and rule.
func Sort(issues []*Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Method < b.Method
	})
}
