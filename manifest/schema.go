package manifest

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// schemaSource constrains the decoded TOML document. Definitions are
// closed, so unknown sections and keys are rejected.
const schemaSource = `
#Config: {
	program?: {
		path?: string & !=""
		patch?: [=~"^[0-9]+$"]: int
	}
	run?: {
		mode?:    "run" | "chain" | "feedback" | "best-chain" | "best-feedback"
		inputs?:  [...int]
		phases?:  [...int]
		workers?: int & >=1
		trace?:   bool
		ascii?:   bool
	}
	log?: {
		verbosity?: int & >=-4
		file?:      string
	}
	snapshot?: {
		db?: string & !=""
	}
}
`

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schema     cue.Value
	schemaErr  error

	// cue.Context is not safe for concurrent use.
	validateMu sync.Mutex
)

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaSource, cue.Filename("intcode.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compiling manifest schema: %w", err)
			return
		}
		schema = v.LookupPath(cue.ParsePath("#Config"))
	})
	return schemaCtx, schema, schemaErr
}

// validate checks a decoded manifest document against the schema.
func validate(doc map[string]any) error {
	validateMu.Lock()
	defer validateMu.Unlock()

	ctx, def, err := loadSchema()
	if err != nil {
		return err
	}
	v := def.Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid manifest: %s", errors.Details(err, nil))
	}
	return nil
}
