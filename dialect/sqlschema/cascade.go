package sqlschema

import "github.com/go-velar/velar/schema"

// actionCode maps a PostgreSQL pg_constraint confupdtype/confdeltype code
// to the declared action it represents. An absent code (no FK at all)
// behaves as NoAction; this table only covers codes that appear once a FK
// does exist.
var actionCode = map[byte]schema.ReferenceAction{
	'a': schema.NoAction,
	'c': schema.Cascade,
	'r': schema.Restrict,
	'd': schema.SetDefault,
}

// ActionFromCode maps a catalog confupdtype/confdeltype character to its
// declared ReferenceAction. An empty code maps to NoAction, matching
// pg_constraint's own default.
func ActionFromCode(code string) schema.ReferenceAction {
	if code == "" {
		return schema.NoAction
	}
	if a, ok := actionCode[code[0]]; ok {
		return a
	}
	return schema.NoAction
}

// ActionSQL renders a ReferenceAction as the SQL keywords PostgreSQL
// expects after ON DELETE/ON UPDATE.
func ActionSQL(a schema.ReferenceAction) string {
	switch a {
	case schema.Cascade:
		return "CASCADE"
	case schema.Restrict:
		return "RESTRICT"
	case schema.SetDefault:
		return "SET DEFAULT"
	default:
		return "NO ACTION"
	}
}
