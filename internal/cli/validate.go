package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/gameerr"
)

// Problem is one validation error.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	StoryID *int   `json:"story_id,omitempty"`
	SceneID *int   `json:"scene_id,omitempty"`
}

// FileResult is the outcome for one content file.
type FileResult struct {
	Path         string    `json:"path"`
	Valid        bool      `json:"valid"`
	Stories      int       `json:"stories"`
	Achievements int       `json:"achievements"`
	MatchBoards  int       `json:"match_boards"`
	Errors       []Problem `json:"errors,omitempty"`
	Warnings     []string  `json:"warnings,omitempty"`
}

// Report is the JSON output of the validator.
type Report struct {
	Valid  bool         `json:"valid"`
	Strict bool         `json:"strict"`
	Files  []FileResult `json:"files"`
}

// ValidateFile loads one file and collects its errors and warnings.
func ValidateFile(path string, strict bool) FileResult {
	res := FileResult{Path: path}

	catalog, err := content.LoadFile(path)
	if catalog != nil {
		res.Stories = len(catalog.Stories())
		res.Achievements = len(catalog.Achievements())
		res.MatchBoards = len(catalog.MatchBoards())
		res.Warnings = catalog.Lint()
	}
	res.Errors = problems(err)
	res.Valid = len(res.Errors) == 0 && (!strict || len(res.Warnings) == 0)
	return res
}

// problems flattens a joined load error into one entry per cause.
func problems(err error) []Problem {
	if err == nil {
		return nil
	}
	var causes []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		causes = joined.Unwrap()
	} else {
		causes = []error{err}
	}

	out := make([]Problem, 0, len(causes))
	for _, cause := range causes {
		var ge *gameerr.Error
		if errors.As(cause, &ge) {
			out = append(out, Problem{Code: string(ge.Code), Message: ge.Message, StoryID: ge.StoryID, SceneID: ge.SceneID})
			continue
		}
		out = append(out, Problem{Code: "LOAD_ERROR", Message: cause.Error()})
	}
	return out
}

func runValidate(opts *Options, paths []string, w io.Writer) error {
	report := Report{Valid: true, Strict: opts.Strict}
	failed := 0
	for _, path := range paths {
		res := ValidateFile(path, opts.Strict)
		if !res.Valid {
			report.Valid = false
			failed++
		}
		report.Files = append(report.Files, res)
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return err
		}
	} else {
		writeText(w, report, failed)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, "%d of %d file(s) failed validation", failed, len(paths))
	}
	return nil
}

func writeText(w io.Writer, report Report, failed int) {
	for _, f := range report.Files {
		if f.Valid {
			fmt.Fprintf(w, "✓ %s: %d stories, %d achievements, %d match boards\n",
				f.Path, f.Stories, f.Achievements, f.MatchBoards)
		} else {
			fmt.Fprintf(w, "✗ %s\n", f.Path)
		}
		for _, p := range f.Errors {
			fmt.Fprintf(w, "  %s: %s%s\n", p.Code, p.Message, location(p))
		}
		for _, warning := range f.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warning)
		}
	}

	fmt.Fprintln(w)
	if failed == 0 {
		fmt.Fprintf(w, "All %d file(s) valid\n", len(report.Files))
		return
	}
	fmt.Fprintf(w, "%d of %d file(s) failed\n", failed, len(report.Files))
}

func location(p Problem) string {
	switch {
	case p.StoryID != nil && p.SceneID != nil:
		return fmt.Sprintf(" (story %d, scene %d)", *p.StoryID, *p.SceneID)
	case p.StoryID != nil:
		return fmt.Sprintf(" (story %d)", *p.StoryID)
	default:
		return ""
	}
}
