package extract

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

// validateScript parses the extraction script as a single Go expression
// and walks the resulting tree, banning anything that isn't a flat
// map[string]any projection. This is this module's stand-in for
// _validate_script's ast.parse walk over banned node types (Import, With,
// AsyncWith) and banned call names (open, exec, eval, __import__, ...):
// Go has no runtime exec/eval to sandbox in the first place, so rather
// than shelling out to `go run` on every tool call, the "script" is
// restricted to a single composite literal the evaluator below can walk
// directly. Any ast.CallExpr at all is rejected, which subsumes the
// original's specific call-name blacklist.
func validateScript(script string) (*ast.CompositeLit, error) {
	expr, err := parser.ParseExpr(script)
	if err != nil {
		return nil, scriptFailure("exec_python_disallowed_syntax", err.Error())
	}

	lit, ok := expr.(*ast.CompositeLit)
	if !ok {
		return nil, scriptFailure("exec_python_disallowed_syntax", "script must be a single map[string]any{...} literal")
	}
	mapType, ok := lit.Type.(*ast.MapType)
	if !ok {
		return nil, scriptFailure("exec_python_disallowed_syntax", "script must be a single map[string]any{...} literal")
	}
	if ident, ok := mapType.Key.(*ast.Ident); !ok || ident.Name != "string" {
		return nil, scriptFailure("exec_python_disallowed_syntax", "projection map must be keyed by string")
	}

	var offender error
	ast.Inspect(lit, func(n ast.Node) bool {
		if offender != nil {
			return false
		}
		switch bad := n.(type) {
		case *ast.CallExpr:
			offender = scriptFailure("exec_python_disallowed_call", exprString(bad.Fun))
		case *ast.ImportSpec:
			offender = scriptFailure("exec_python_disallowed_syntax", "import")
		case *ast.FuncLit:
			offender = scriptFailure("exec_python_disallowed_syntax", "func literal")
		case *ast.GoStmt:
			offender = scriptFailure("exec_python_disallowed_syntax", "go statement")
		case *ast.SelectorExpr:
			offender = scriptFailure("exec_python_disallowed_syntax", "selector expression")
		}
		return offender == nil
	})
	if offender != nil {
		return nil, offender
	}
	return lit, nil
}

func scriptFailure(reason, detail string) error {
	return fmt.Errorf("%s: %s", reason, detail)
}

func exprString(e ast.Expr) string {
	if ident, ok := e.(*ast.Ident); ok {
		return ident.Name
	}
	return "expr"
}

// evaluateProjection walks a validated map[string]any{...} literal and
// resolves each value against payload, supporting only string/int/float/
// bool literals and payload["field"] lookups — the full expressiveness an
// extraction step actually needs, and no more.
func evaluateProjection(lit *ast.CompositeLit, payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(lit.Elts))
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			return nil, scriptFailure("exec_python_disallowed_syntax", "map element must be key: value")
		}
		keyLit, ok := kv.Key.(*ast.BasicLit)
		if !ok || keyLit.Kind != token.STRING {
			return nil, scriptFailure("exec_python_disallowed_syntax", "map key must be a string literal")
		}
		key, err := strconv.Unquote(keyLit.Value)
		if err != nil {
			return nil, scriptFailure("exec_python_disallowed_syntax", "malformed map key")
		}
		value, err := evaluateValueExpr(kv.Value, payload)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

func evaluateValueExpr(expr ast.Expr, payload map[string]any) (any, error) {
	switch v := expr.(type) {
	case *ast.BasicLit:
		return basicLitValue(v)
	case *ast.Ident:
		switch v.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "nil":
			return nil, nil
		}
		return nil, scriptFailure("exec_python_disallowed_syntax", "unsupported identifier "+v.Name)
	case *ast.IndexExpr:
		ident, ok := v.X.(*ast.Ident)
		if !ok || ident.Name != "payload" {
			return nil, scriptFailure("exec_python_disallowed_syntax", "only payload[...] lookups are allowed")
		}
		keyLit, ok := v.Index.(*ast.BasicLit)
		if !ok || keyLit.Kind != token.STRING {
			return nil, scriptFailure("exec_python_disallowed_syntax", "payload index must be a string literal")
		}
		key, err := strconv.Unquote(keyLit.Value)
		if err != nil {
			return nil, scriptFailure("exec_python_disallowed_syntax", "malformed payload index")
		}
		return payload[key], nil
	default:
		return nil, scriptFailure("exec_python_disallowed_syntax", "unsupported expression")
	}
}

func basicLitValue(lit *ast.BasicLit) (any, error) {
	switch lit.Kind {
	case token.STRING:
		return strconv.Unquote(lit.Value)
	case token.INT:
		n, err := strconv.ParseInt(lit.Value, 10, 64)
		return n, err
	case token.FLOAT:
		f, err := strconv.ParseFloat(lit.Value, 64)
		return f, err
	default:
		return nil, scriptFailure("exec_python_disallowed_syntax", "unsupported literal kind")
	}
}
