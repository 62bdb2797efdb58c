package templater

import (
	"fmt"

	"mailtemplate/internal/css"
	"mailtemplate/internal/html"
	"mailtemplate/internal/render"
	"mailtemplate/internal/templates"
)

// Error kinds surfaced by Render. Match them with errors.Is.
var (
	ErrTemplateNotFound        = templates.ErrTemplateNotFound
	ErrMalformedTemplate       = html.ErrMalformedTemplate
	ErrMissingTemplateVariable = render.ErrMissingTemplateVariable
	ErrInvalidSelector         = css.ErrInvalidSelector
)

// MissingVariableError names the data key a template referenced but the
// request did not supply.
type MissingVariableError = render.MissingVariableError

// Stage names the pipeline step a render failed in.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageParse   Stage = "parse"
	StageExtract Stage = "extract"
	StageInline  Stage = "inline"
	StageRender  Stage = "render"
)

// StageError wraps a pipeline failure with the request it belonged to.
// It unwraps to the original error.
type StageError struct {
	Stage    Stage
	Template string
	Language string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Stage, e.Template, e.Language, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
