package gameerr

import (
	"errors"
	"fmt"
)

// Code identifies the category of an engine error.
type Code string

const (
	CodeInvalidChoice    Code = "INVALID_CHOICE"
	CodeStoryLocked      Code = "STORY_LOCKED"
	CodeStoryNotFound    Code = "STORY_NOT_FOUND"
	CodeSceneNotFound    Code = "SCENE_NOT_FOUND"
	CodeMalformedContent Code = "MALFORMED_CONTENT"
	CodeNoActiveStory    Code = "NO_ACTIVE_STORY"
	CodeUnknownItem      Code = "UNKNOWN_ITEM"
	CodeAlreadyMatched   Code = "ALREADY_MATCHED"
	CodeNotStarted       Code = "SESSION_NOT_STARTED"
)

// Error is the single error type returned by the engine packages.
// Per-action errors (invalid choice, locked story) are recoverable by the
// caller; MalformedContent is only produced while loading a catalog.
type Error struct {
	Code    Code
	Message string
	StoryID *int
	SceneID *int
}

// Sentinels for errors.Is. A sentinel matches any Error with the same code.
var (
	ErrInvalidChoice    = &Error{Code: CodeInvalidChoice}
	ErrStoryLocked      = &Error{Code: CodeStoryLocked}
	ErrStoryNotFound    = &Error{Code: CodeStoryNotFound}
	ErrSceneNotFound    = &Error{Code: CodeSceneNotFound}
	ErrMalformedContent = &Error{Code: CodeMalformedContent}
	ErrNoActiveStory    = &Error{Code: CodeNoActiveStory}
	ErrUnknownItem      = &Error{Code: CodeUnknownItem}
	ErrAlreadyMatched   = &Error{Code: CodeAlreadyMatched}
	ErrNotStarted       = &Error{Code: CodeNotStarted}
)

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	switch {
	case e.StoryID != nil && e.SceneID != nil:
		msg += fmt.Sprintf(" (story=%d, scene=%d)", *e.StoryID, *e.SceneID)
	case e.StoryID != nil:
		msg += fmt.Sprintf(" (story=%d)", *e.StoryID)
	}
	return msg
}

// Is reports whether target is a sentinel with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == "" && t.StoryID == nil && t.SceneID == nil
}

// New builds an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InStory attaches a story id.
func (e *Error) InStory(storyID int) *Error {
	e.StoryID = &storyID
	return e
}

// AtScene attaches a scene id.
func (e *Error) AtScene(sceneID int) *Error {
	e.SceneID = &sceneID
	return e
}

// CodeOf returns the code of the first Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}
