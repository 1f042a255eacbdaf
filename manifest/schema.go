package manifest

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schemaSrc constrains the shape and ranges of jolt.toml. Unknown tables
// and keys are rejected.
const schemaSrc = `
close({
	project?: close({
		name?:    string
		version?: string
	})
	classpath?: close({
		entries?: [...string & !=""]
	})
	run?: close({
		main?:   string & =~"^[A-Za-z_$][A-Za-z0-9_$./]*$"
		method?: string & !=""
		args?: [...string]
	})
	limits?: close({
		"max-call-depth"?: int & >0 & <=65536
	})
	trace?: close({
		output?: string
	})
	history?: close({
		database?: string
		limit?:    int & >0
	})
	log?: close({
		verbosity?: int & >=0 & <=5
	})
})
`

// validate unifies a decoded TOML document with the schema.
func validate(doc map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("jolt.cue"))
	if err := schema.Err(); err != nil {
		return err
	}
	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return err
	}
	return schema.Unify(value).Validate(cue.Concrete(true))
}
