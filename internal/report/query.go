package report

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/acheong08/depguardian/internal/errs"
)

// Query is a compiled boolean expression over report entries, e.g.
//
//	risk == "High" && "1 Low Vuln" in vulns
type Query struct {
	expr string
	prg  cel.Program
}

var queryEnv = mustQueryEnv()

func mustQueryEnv() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("index", cel.IntType),
		cel.Variable("name", cel.StringType),
		cel.Variable("version", cel.StringType),
		cel.Variable("risk", cel.StringType),
		cel.Variable("raw_risk", cel.StringType),
		cel.Variable("security", cel.StringType),
		cel.Variable("freshness", cel.StringType),
		cel.Variable("license", cel.StringType),
		cel.Variable("status", cel.StringType),
		cel.Variable("vulns", cel.ListType(cel.StringType)),
		cel.Variable("estimated", cel.BoolType),
	)
	if err != nil {
		panic(fmt.Sprintf("report: building query environment: %v", err))
	}
	return env
}

// CompileQuery parses and type-checks an expression. An empty expression
// yields a nil query, which matches everything.
func CompileQuery(expr string) (*Query, error) {
	if expr == "" {
		return nil, nil
	}

	ast, iss := queryEnv.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, errs.Validation("report.CompileQuery", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errs.Validation("report.CompileQuery",
			fmt.Errorf("expression must evaluate to bool, got %s", ast.OutputType()))
	}

	prg, err := queryEnv.Program(ast)
	if err != nil {
		return nil, errs.Validation("report.CompileQuery", err)
	}
	return &Query{expr: expr, prg: prg}, nil
}

// String returns the source expression
func (q *Query) String() string {
	if q == nil {
		return ""
	}
	return q.expr
}

// Match evaluates the query against one entry
func (q *Query) Match(e Entry) (bool, error) {
	if q == nil {
		return true, nil
	}

	out, _, err := q.prg.Eval(map[string]any{
		"index":     int64(e.Index),
		"name":      e.Package.Name,
		"version":   e.Package.Version,
		"risk":      string(e.Classification.RiskLevel),
		"raw_risk":  e.Package.RiskLevel,
		"security":  e.Package.Security,
		"freshness": e.Package.Freshness,
		"license":   e.Package.License,
		"status":    string(e.Classification.Status),
		"vulns":     e.Classification.Texts(),
		"estimated": e.Classification.Estimated(),
	})
	if err != nil {
		return false, errs.Validation("report.Query", fmt.Errorf("evaluating %q: %w", q.expr, err))
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, errs.Validation("report.Query", fmt.Errorf("expression %q did not yield a bool", q.expr))
	}
	return matched, nil
}
