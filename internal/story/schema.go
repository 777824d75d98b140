package story

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed chapter.cue
var chapterSchema string

// ValidateJSON checks raw generator output against the #Chapter definition
// in chapter.cue. Missing fields, values outside the closed vocabularies and
// empty script lists are rejected. Extra fields are ignored.
func ValidateJSON(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(chapterSchema, cue.Filename("chapter.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile chapter schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Chapter"))

	v := ctx.CompileBytes(data, cue.Filename("chapter.json"))
	if err := v.Err(); err != nil {
		return fmt.Errorf("parse chapter: %w", err)
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("chapter does not match schema: %w", err)
	}
	return nil
}

// DecodeChapter validates data with ValidateJSON and decodes it.
func DecodeChapter(data []byte) (StructuredChapter, error) {
	if err := ValidateJSON(data); err != nil {
		return StructuredChapter{}, err
	}
	var c StructuredChapter
	if err := json.Unmarshal(data, &c); err != nil {
		return StructuredChapter{}, fmt.Errorf("decode chapter: %w", err)
	}
	return c, nil
}
